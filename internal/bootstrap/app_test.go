package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/infrastructure/config"
)

func TestGatewayConfigSource_Credentials(t *testing.T) {
	cfg := &config.Config{
		Gateways: map[string]config.GatewaySettings{
			"razorpay": {
				Mode: "live",
				Credentials: map[string]string{
					"key_id":     "rzp_live_abc",
					"key_secret": "s3cret",
				},
			},
		},
	}

	source := GatewayConfigSource(cfg)

	var gwCfg gateway.Config
	var ok bool
	require.NotPanics(t, func() {
		gwCfg, ok = source("razorpay")
	})
	require.True(t, ok)
	assert.True(t, gwCfg.Enabled)
	assert.Equal(t, gateway.ModeLive, gwCfg.Mode)
	assert.Equal(t, "rzp_live_abc", gwCfg.Credentials["key_id"])
	assert.Equal(t, "s3cret", gwCfg.Credentials["key_secret"])
}

func TestGatewayConfigSource_Defaults(t *testing.T) {
	disabled := false
	cfg := &config.Config{
		Gateways: map[string]config.GatewaySettings{
			"stripe": {},
			"paypal": {Enabled: &disabled},
		},
	}

	source := GatewayConfigSource(cfg)

	gwCfg, ok := source("stripe")
	require.True(t, ok)
	assert.True(t, gwCfg.Enabled)
	assert.Equal(t, gateway.ModeSandbox, gwCfg.Mode)
	assert.Empty(t, gwCfg.Credentials)

	gwCfg, ok = source("paypal")
	require.True(t, ok)
	assert.False(t, gwCfg.Enabled)

	_, ok = source("unknown")
	assert.False(t, ok)
}
