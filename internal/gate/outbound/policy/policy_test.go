package policy

import (
	"context"
	"testing"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
)

func newPolicy(t *testing.T) *Policy {
	t.Helper()

	m, err := model.NewModelFromString(Model)
	require.NoError(t, err)

	e, err := casbin.NewSyncedEnforcer(m)
	require.NoError(t, err)

	p := New(e, instrument.NewNoop())
	require.NoError(t, p.SeedDefaults(context.Background(),
		[]string{"/dashboard*", "/booking*", "/checkout*", "/confirmation*"},
		[]string{"/login", "/signup"},
	))
	return p
}

func TestClassify(t *testing.T) {
	p := newPolicy(t)

	tests := []struct {
		path string
		want entity.PathClass
	}{
		{path: "/dashboard", want: entity.PathClassProtected},
		{path: "/dashboard/orders/12", want: entity.PathClassProtected},
		{path: "/booking", want: entity.PathClassProtected},
		{path: "/checkout/pay", want: entity.PathClassProtected},
		{path: "/confirmation", want: entity.PathClassProtected},
		{path: "/login", want: entity.PathClassAuthEntry},
		{path: "/signup", want: entity.PathClassAuthEntry},
		{path: "/login/help", want: entity.PathClassPublic},
		{path: "/", want: entity.PathClassPublic},
		{path: "/about", want: entity.PathClassPublic},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := p.Classify(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeedDefaultsKeepsExistingRules(t *testing.T) {
	p := newPolicy(t)

	require.NoError(t, p.SeedDefaults(context.Background(), []string{"/admin*"}, nil))

	got, err := p.Classify(context.Background(), "/admin")
	require.NoError(t, err)
	assert.Equal(t, entity.PathClassPublic, got)
}
