package dataset

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValidates(t *testing.T) {
	require.NoError(t, DefaultOptions().validate())
}

func TestValidateRejectsMaxActiveBelowOne(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxActive = 0
	err := opts.validate()
	require.Error(t, err)
	require.IsType(t, &ErrConfig{}, err)
}

func TestValidateRejectsForcedSRWithWorkOrFallback(t *testing.T) {
	opts := DefaultOptions()
	opts.SRForced = "EPSG:4326"
	opts.SRWork = "EPSG:3857"
	require.Error(t, opts.validate())
}

func TestOptionsFromViperOverlaysDefaults(t *testing.T) {
	v := viper.New()
	v.Set("max_active", 16)
	v.Set("sr_forced", "EPSG:4326")

	opts := OptionsFromViper(v)
	require.Equal(t, 16, opts.MaxActive)
	require.Equal(t, "EPSG:4326", opts.SRForced)
	require.True(t, opts.AllowInterpolation, "unset keys must keep DefaultOptions' values")
	require.Equal(t, 10*time.Millisecond, opts.PollInterval)
}
