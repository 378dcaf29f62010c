package assist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vickotoAguilera/BoletasScaner/internal/assist"
)

func TestTutorial_KnownScreens(t *testing.T) {
	assert.Contains(t, assist.Tutorial("dashboard"), "Dashboard")
	assert.Contains(t, assist.Tutorial("scanner"), "Escáner")
	assert.Contains(t, assist.Tutorial("export"), "Exportar")
	assert.Contains(t, assist.Tutorial("profile"), "Perfil")
}

func TestTutorial_UnknownFallsBackToLanding(t *testing.T) {
	assert.Equal(t, assist.Tutorial("landing"), assist.Tutorial("no-such-screen"))
	assert.Equal(t, assist.Tutorial("landing"), assist.Tutorial(""))
}
