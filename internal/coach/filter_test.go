package coach

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sportconnect-go/internal/lexicon"
)

func TestDomainFilter_Greetings(t *testing.T) {
	f := NewDomainFilter(lexicon.Default())
	for _, msg := range []string{"hola", "Bonjour", "  HELLO  ", "salut coach", "hey"} {
		require.True(t, f.IsAllowed(msg), msg)
	}
}

func TestDomainFilter_Keywords(t *testing.T) {
	f := NewDomainFilter(lexicon.Default())
	allowed := []string{
		"necesito un plan de nutrición",
		"Quel régime pour prendre du muscle ?",
		"How many hours of sleep do I need?",
		"Quero melhorar minha alimentação",
		"je veux faire des exercices de respiration",
	}
	for _, msg := range allowed {
		require.True(t, f.IsAllowed(msg), msg)
	}

	rejected := []string{
		"what is the capital of France",
		"who won the election yesterday",
	}
	for _, msg := range rejected {
		require.False(t, f.IsAllowed(msg), msg)
	}
}

func TestDomainFilter_EmptyIsRejected(t *testing.T) {
	f := NewDomainFilter(lexicon.Default())
	require.False(t, f.IsAllowed(""))
	require.False(t, f.IsAllowed("   \n\t"))
}

func TestDomainFilter_ShortStemsOnlyApplyToShortMessages(t *testing.T) {
	table := &lexicon.Table{
		ShortStems:  []string{"gym"},
		ShortMaxLen: 15,
		Keywords:    map[string][]string{"en": {"nutrition"}},
	}
	f := NewDomainFilter(table)

	require.True(t, f.IsAllowed("gym today?"))
	require.False(t, f.IsAllowed("tell me about the gym downtown parking rules"))
	require.True(t, f.IsAllowed("tell me about nutrition in general please"))
}
