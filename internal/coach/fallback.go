package coach

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sportconnect-go/internal/lexicon"
)

// FallbackAnswer 在模型不可用或返回空内容时提供确定性的四章节回答。
// 只按语言前缀选择模板（fr、es，其余为英文），message 目前不参与选择。
func FallbackAnswer(message, lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(l, "fr"):
		return fallbackFR
	case strings.HasPrefix(l, "es"):
		return fallbackES
	default:
		return fallbackEN
	}
}

// 有专用兜底模板的语言，其余语言使用英文模板。
var fallbackTemplates = map[string]string{
	"fr": fallbackFR,
	"es": fallbackES,
	"en": fallbackEN,
}

// CheckFallback 确认兜底模板与词表一致：章节标题及顺序、项目符号、
// 训练章节标题，以及至少一个能被每日计划过滤识别的日期条目。
// 外部词表改动了标题而模板未改时，每日报告会静默地不做过滤，因此在启动时检查。
func CheckFallback(table *lexicon.Table) error {
	var errs []error
	for i := range table.Languages {
		l := &table.Languages[i]
		tmpl, ok := fallbackTemplates[l.Code]
		if !ok {
			continue
		}
		if err := checkTemplate(table, l, tmpl); err != nil {
			errs = append(errs, fmt.Errorf("语言 %q 的兜底模板与词表不一致: %w", l.Code, err))
		}
	}
	return errors.Join(errs...)
}

func checkTemplate(table *lexicon.Table, l *lexicon.Language, tmpl string) error {
	want := make([]string, 0, len(SectionKinds))
	for _, k := range SectionKinds {
		want = append(want, k.Title(l))
	}

	var dayPrefixes []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		for _, p := range l.DayPrefixes(d) {
			dayPrefixes = append(dayPrefixes, strings.ToLower(table.Bullet+p))
		}
	}

	var titles []string
	inTraining, sawTraining, sawDay := false, false, false
	for _, line := range strings.Split(tmpl, "\n") {
		if title, ok := parseTitleLine(line); ok {
			titles = append(titles, title)
			inTraining = matchesHeader(title, l.TrainingHeaders)
			sawTraining = sawTraining || inTraining
			continue
		}
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, table.Bullet) {
			return fmt.Errorf("条目 %q 没有使用项目符号 %q", line, table.Bullet)
		}
		if inTraining && hasAnyPrefix(strings.ToLower(line), dayPrefixes) {
			sawDay = true
		}
	}

	if strings.Join(titles, "\n") != strings.Join(want, "\n") {
		return fmt.Errorf("章节标题 %q 与词表 %q 不符", titles, want)
	}
	if !sawTraining {
		return errors.New("没有章节标题匹配 training_headers")
	}
	if len(dayPrefixes) > 0 && !sawDay {
		return errors.New("训练章节中没有匹配日期前缀的条目")
	}
	return nil
}

const fallbackFR = "" +
	"**Plan**\n" +
	"* Salut ! À partir de ton profil et de ton objectif de remise en forme, je te propose un programme d'entraînement simple, progressif et adaptable à ton niveau.\n" +
	"* L’idée est de bouger régulièrement, de renforcer tout le corps et d’adopter quelques bonnes habitudes d’alimentation et de récupération.\n" +
	"\n" +
	"**Plan d'entraînement (3 séances par semaine max)**\n" +
	"* Lundi : 30–40 minutes de marche rapide ou de vélo léger, suivies de 5–10 minutes d’étirements doux (jambes, dos, épaules).\n" +
	"* Mercredi : 30 minutes de renforcement musculaire (squats au poids du corps, fentes, pompes adaptées contre un mur ou sur les genoux, gainage 3×20–30 s).\n" +
	"* Vendredi : 30–40 minutes d’activité cardio au choix (marche en côte, vélo, natation douce ou cours de yoga dynamique), puis respiration profonde et étirements.\n" +
	"* Option : si tu te sens bien, ajoute une courte séance de mobilité le weekend (10–15 minutes d’étirements et de mouvements articulaires).\n" +
	"\n" +
	"**Conseils d'alimentation et d’hydratation**\n" +
	"* Bois de l’eau régulièrement dans la journée (6 à 8 verres), et un peu avant/après l’entraînement.\n" +
	"* Compose tes repas autour de trois piliers : une source de protéines (œufs, poisson, tofu, légumineuses), des légumes variés et un féculent complet (riz complet, quinoa, patate douce, pain complet).\n" +
	"* Limite les produits ultra-transformés, très sucrés ou très gras (boissons gazeuses, fast-food, snacks industriels) à un usage occasionnel.\n" +
	"* Privilégie des collations simples : fruit frais, yaourt nature, poignée de noix ou d’amandes.\n" +
	"* Essaie de garder des horaires de repas assez réguliers pour stabiliser ton énergie dans la journée.\n" +
	"\n" +
	"**Conseil de récupération/sommeil/motivation**\n" +
	"* Vise 7 à 8 heures de sommeil par nuit, dans une chambre calme, sombre et fraîche (éloigne les écrans au moins 30 minutes avant de dormir).\n" +
	"* Après chaque séance, prends 5–10 minutes pour respirer profondément et t’étirer : cela aide à détendre les muscles et le mental.\n" +
	"* Écoute ton corps : en cas de douleur inhabituelle, diminue l’intensité ou remplace l’exercice par un mouvement plus doux.\n" +
	"* Fixe-toi de petits objectifs concrets (par exemple : marcher 3 fois par semaine pendant un mois) et note tes progrès.\n" +
	"* N’hésite pas à demander l’avis d’un professionnel de santé si tu as un problème médical ou une douleur persistante.\n"

const fallbackES = "" +
	"**Plan**\n" +
	"* A partir de tu objetivo de ponerte en forma, te propongo una rutina sencilla, progresiva y realista que puedas mantener en el tiempo.\n" +
	"* La idea es moverte de forma regular, trabajar fuerza básica y cuidar la alimentación y el descanso.\n" +
	"\n" +
	"**Plan de entrenamiento (3 sesiones por semana máximo)**\n" +
	"* Lunes: 30–40 minutos de caminata rápida o bicicleta suave, seguidos de 5–10 minutos de estiramientos.\n" +
	"* Miércoles: 30 minutos de fuerza con el propio peso (sentadillas, zancadas, flexiones apoyadas en pared o rodillas, plancha 3×20–30 s).\n" +
	"* Viernes: 30–40 minutos de cardio a tu elección (caminata en subida, bici, natación suave o yoga dinámico) + respiración profunda.\n" +
	"* Opcional: el fin de semana, 10–15 minutos de movilidad y estiramientos suaves para relajar el cuerpo.\n" +
	"\n" +
	"**Consejos de alimentación e hidratación**\n" +
	"* Bebe agua a lo largo del día (6–8 vasos) y alrededor del entrenamiento.\n" +
	"* Llena tu plato con: una fuente de proteína (huevos, pescado, legumbres, tofu), verduras de colores y un carbohidrato integral (arroz integral, quinoa, avena, pan integral).\n" +
	"* Reduce los ultraprocesados, refrescos azucarados y “fast-food” a ocasiones puntuales.\n" +
	"* Elige colaciones simples: fruta fresca, yogur natural, un puñado de frutos secos.\n" +
	"* Intenta mantener horarios de comida relativamente regulares para estabilizar tu energía.\n" +
	"\n" +
	"**Consejos de recuperación/sueño/motivación**\n" +
	"* Intenta dormir 7–8 horas por noche en un ambiente oscuro y tranquilo, alejando pantallas antes de acostarte.\n" +
	"* Después de entrenar, dedica unos minutos a estirarte y respirar profundo para soltar tensión.\n" +
	"* Escucha tu cuerpo: si notas dolor raro, baja la intensidad o cambia el ejercicio por una variante más suave.\n" +
	"* Márcate objetivos pequeños y medibles (por ejemplo, caminar 3 veces por semana) y celebra tus avances.\n" +
	"* Si tienes una condición médica o un dolor persistente, consulta con un profesional de la salud.\n"

const fallbackEN = "" +
	"**Plan**\n" +
	"* Based on your goal of getting fitter, here is a simple, progressive routine you can follow safely.\n" +
	"* The idea is to move regularly, build basic strength and support it with good nutrition and recovery habits.\n" +
	"\n" +
	"**Training plan (3 sessions per week max)**\n" +
	"* Monday: 30–40 minutes of brisk walking or easy cycling, followed by 5–10 minutes of light stretching.\n" +
	"* Wednesday: 30 minutes of body-weight strength (squats, lunges, push-ups against a wall or on knees, plank 3×20–30 s).\n" +
	"* Friday: 30–40 minutes of cardio of your choice (incline walk, bike, easy swimming or a dynamic yoga session) + deep breathing.\n" +
	"* Optional: on the weekend, 10–15 minutes of mobility and gentle stretching to relax your body.\n" +
	"\n" +
	"**Nutrition and hydration tips**\n" +
	"* Drink water regularly throughout the day (around 6–8 glasses) and around your workouts.\n" +
	"* Build your meals around: a source of protein (eggs, fish, legumes, tofu), plenty of vegetables and a complex carb (brown rice, quinoa, oats, whole-grain bread).\n" +
	"* Limit highly processed foods, sugary drinks and fast-food to occasional treats.\n" +
	"* Choose simple snacks: fresh fruit, plain yogurt, a handful of nuts.\n" +
	"* Try to keep fairly regular meal times to stabilise your energy.\n" +
	"\n" +
	"**Recovery / sleep / motivation tips**\n" +
	"* Aim for 7–8 hours of sleep per night in a dark, quiet room, and avoid screens just before bed.\n" +
	"* After each session, take a few minutes to stretch and breathe deeply to let your muscles and mind relax.\n" +
	"* Listen to your body: if you feel unusual pain, reduce intensity or swap the exercise for a gentler option.\n" +
	"* Set small, realistic goals (for example: walk 3 times per week for a month) and track your progress.\n" +
	"* If you have a medical condition or persistent pain, ask advice from a health professional.\n"
