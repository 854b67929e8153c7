package pyside_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/tools/pyside"
	"go.uber.org/mock/gomock"
)

func TestPySideUI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		uic     string
		targets []string
		sources []string
		want    []string
	}{
		{
			name:    "derived targets",
			sources: []string{"ui/main.ui", "ui/about.ui"},
			want: []string{
				"pyside-uic ui/main.ui > ui/main.py",
				"pyside-uic ui/about.ui > ui/about.py",
			},
		},
		{
			name:    "explicit target and compiler",
			uic:     "pyside6-uic",
			targets: []string{"app/ui_main.py"},
			sources: []string{"ui/main.ui"},
			want:    []string{"pyside6-uic ui/main.ui > app/ui_main.py"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			reg := domain.NewRegistry()
			env := domain.NewEnv()
			if tt.uic != "" {
				env.Replace("PYSIDE_UIC", tt.uic)
			}
			require.NoError(t, pyside.New().Generate(reg, env, mocks.NewMockLogger(ctrl)))

			b, err := reg.Builder(pyside.BuilderName)
			require.NoError(t, err)

			steps, err := b.NewSteps(env, domain.Files(tt.targets...), domain.Files(tt.sources...))
			require.NoError(t, err)

			var got []string
			for _, s := range steps {
				inv, err := b.Action.Prepare(s)
				require.NoError(t, err)
				got = append(got, inv.Command)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPySideUI_TargetCountMismatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	reg := domain.NewRegistry()
	env := domain.NewEnv()
	require.NoError(t, pyside.New().Generate(reg, env, mocks.NewMockLogger(ctrl)))

	b, err := reg.Builder(pyside.BuilderName)
	require.NoError(t, err)

	_, err = b.NewSteps(env, domain.Files("one.py"), domain.Files("a.ui", "b.ui"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTargetRequired.Error())
}
