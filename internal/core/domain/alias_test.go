package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/core/domain"
)

func aliasGraph(t *testing.T, aliases ...domain.AliasDeclaration) (*domain.Graph, error) {
	t.Helper()
	return domain.BuildGraph(domain.Declaration{
		Nodes: []domain.NodeDeclaration{
			{ID: "clean", Source: "code/clean.R", Outputs: []string{"data/clean.csv"}, Dependencies: []string{"data/raw.csv"}},
			{ID: "fig1", Source: "code/fig1.R", Outputs: []string{"output/fig1.pdf"}, Dependencies: []string{"clean"}},
			{ID: "fig2", Source: "code/fig2.R", Outputs: []string{"output/fig2.pdf"}, Dependencies: []string{"clean"}},
			{ID: "table", Source: "code/table.R", Outputs: []string{"output/table.tex"}, Dependencies: []string{"clean"}},
		},
		Aliases: aliases,
	}, t.TempDir())
}

func TestResolveAlias_Nested(t *testing.T) {
	g, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "figures", Members: []string{"fig1", "output/fig2.pdf"}},
		domain.AliasDeclaration{Name: "paper", Members: []string{"figures", "table", "fig1"}},
	)
	require.NoError(t, err)

	got, err := g.ResolveAlias("paper")
	require.NoError(t, err)
	assert.Equal(t, []string{"fig1", "fig2", "table"}, domain.Strings(got))
}

func TestResolveAlias_Cycle(t *testing.T) {
	_, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "x", Members: []string{"y"}},
		domain.AliasDeclaration{Name: "y", Members: []string{"fig1", "x"}},
	)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestResolveAlias_UnknownMember(t *testing.T) {
	_, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "figures", Members: []string{"fig3"}},
	)
	require.ErrorIs(t, err, domain.ErrUnknownAlias)
}

func TestResolveAlias_NameConflict(t *testing.T) {
	_, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "clean", Members: []string{"fig1"}},
	)
	require.ErrorIs(t, err, domain.ErrNameConflict)
}

func TestResolveAlias_OutputPathConflict(t *testing.T) {
	_, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "output/fig1.pdf", Members: []string{"fig2"}},
	)
	require.ErrorIs(t, err, domain.ErrNameConflict)
}

func TestResolveAlias_Reserved(t *testing.T) {
	_, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "all", Members: []string{"fig1"}},
	)
	require.ErrorIs(t, err, domain.ErrReservedName)
}

func TestResolveAlias_Empty(t *testing.T) {
	_, err := aliasGraph(t, domain.AliasDeclaration{Name: "nothing"})
	require.ErrorIs(t, err, domain.ErrInvalidDeclaration)
}

func TestResolveTargets(t *testing.T) {
	g, err := aliasGraph(t,
		domain.AliasDeclaration{Name: "figures", Members: []string{"fig1", "fig2"}},
	)
	require.NoError(t, err)

	tests := []struct {
		name    string
		targets []string
		want    []string
	}{
		{"empty means all", nil, []string{"clean", "fig1", "fig2", "table"}},
		{"all", []string{"table", "all"}, []string{"clean", "fig1", "fig2", "table"}},
		{"node id", []string{"table"}, []string{"table"}},
		{"output path", []string{"./output/fig2.pdf"}, []string{"fig2"}},
		{"alias", []string{"figures"}, []string{"fig1", "fig2"}},
		{"deduplicated", []string{"fig2", "figures"}, []string{"fig2", "fig1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ResolveTargets(tt.targets)
			require.NoError(t, err)
			assert.Equal(t, tt.want, domain.Strings(got))
		})
	}

	_, err = g.ResolveTargets([]string{"fig9"})
	require.ErrorIs(t, err, domain.ErrUnknownTarget)

	// Names next to "all" are still checked.
	_, err = g.ResolveTargets([]string{"all", "fig9"})
	require.ErrorIs(t, err, domain.ErrUnknownTarget)
	_, err = g.ResolveTargets([]string{"fig9", "all"})
	require.ErrorIs(t, err, domain.ErrUnknownTarget)
}

func TestClosure(t *testing.T) {
	g, err := aliasGraph(t)
	require.NoError(t, err)

	got, err := g.Closure([]domain.InternedString{
		domain.NewInternedString("fig2"),
		domain.NewInternedString("fig1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "fig1", "fig2"}, domain.Strings(got))

	_, err = g.Closure([]domain.InternedString{domain.NewInternedString("nope")})
	require.ErrorIs(t, err, domain.ErrUnknownTarget)
}
