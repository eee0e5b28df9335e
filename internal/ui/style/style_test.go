package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/ui/style"
)

func TestForStatus(t *testing.T) {
	assert.Equal(t, style.Status{Icon: style.Check, Color: style.Green}, style.ForStatus(domain.StatusBuilt))
	assert.Equal(t, style.Status{Icon: style.Cross, Color: style.Red}, style.ForStatus(domain.StatusFailed))
	assert.Equal(t, style.Status{Icon: style.Circle, Color: style.Slate}, style.ForStatus("Unknown"))
}
