package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DataModePostgres, cfg.Server.DataMode)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Billing.GST.Enabled)
	assert.Equal(t, "percent", cfg.Billing.GST.Kind)
	assert.Equal(t, "UTC", cfg.Report.TimeZone)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_DATA_MODE", "MEMORY")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://shop.example, https://admin.example ,")
	t.Setenv("BILLING_CGST_ENABLED", "true")
	t.Setenv("BILLING_CGST_KIND", "fixed")
	t.Setenv("BILLING_CGST_VALUE", "25.5")
	t.Setenv("REPORT_TIMEZONE", "Asia/Kolkata")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, DataModeMemory, cfg.Server.DataMode)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Billing.CGST.Enabled)
	assert.Equal(t, "fixed", cfg.Billing.CGST.Kind)
	assert.InDelta(t, 25.5, cfg.Billing.CGST.Value, 0.0001)
	assert.Equal(t, "Asia/Kolkata", cfg.Report.TimeZone)
}

func TestReportLocation(t *testing.T) {
	loc, err := ReportConfig{}.Location()
	assert.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	loc, err = ReportConfig{TimeZone: "Asia/Kolkata"}.Location()
	assert.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	_, err = ReportConfig{TimeZone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

func TestRedisAddr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380"}.Addr())
}
