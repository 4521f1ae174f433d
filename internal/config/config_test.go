package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for key, value := range map[string]string{
		"APP_PORT":                       "",
		"STORE_DRIVER":                   "memory",
		"LIST_CONCURRENCY":               "",
		"AUTH_DISABLED":                  "true",
		"AUTH_DEV_SUBJECT":               "",
		"FIREBASE_PROJECT_ID":            "",
		"GOOGLE_SHEETS_CREDENTIALS_PATH": "",
		"GOOGLE_SHEET_ID":                "",
		"REPORT_CRON_SCHEDULE":           "",
		"TIMEZONE":                       "UTC",
		"WHATSAPP_TOKEN":                 "",
		"WHATSAPP_PHONE_NUMBER_ID":       "",
		"META_VERIFY_TOKEN":              "",
		"WHATSAPP_APP_SECRET":            "",
		"WHATSAPP_OPERATOR_NUMBER":       "",
		"WHATSAPP_OPERATOR_SUBJECT":      "",
	} {
		t.Setenv(key, value)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Store.ListConcurrency)
	assert.True(t, cfg.Auth.Disabled)
	assert.Equal(t, "dev-operator", cfg.Auth.DevSubject)
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.WhatsApp.Enabled())
}

func TestLoad_RequiresFirebaseProject(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTH_DISABLED", "false")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")

	t.Setenv("FIREBASE_PROJECT_ID", "water-bottles")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "water-bottles", cfg.Auth.ProjectID)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver":    {"STORE_DRIVER": "firestore"},
		"bad concurrency":   {"LIST_CONCURRENCY": "many"},
		"zero concurrency":  {"LIST_CONCURRENCY": "0"},
		"bad timezone":      {"TIMEZONE": "Mars/Olympus"},
		"half sheets":       {"GOOGLE_SHEET_ID": "sheet"},
		"bad auth flag":     {"AUTH_DISABLED": "maybe"},
		"whatsapp no token": {"WHATSAPP_TOKEN": "t", "WHATSAPP_PHONE_NUMBER_ID": "p"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_WhatsAppOperator(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")
	t.Setenv("META_VERIFY_TOKEN", "verify")
	t.Setenv("WHATSAPP_OPERATOR_NUMBER", "919800000000")

	_, err := Load("")
	require.ErrorContains(t, err, "WHATSAPP_APP_SECRET")

	t.Setenv("WHATSAPP_APP_SECRET", "app-secret")
	_, err = Load("")
	require.ErrorContains(t, err, "WHATSAPP_OPERATOR_SUBJECT")

	t.Setenv("WHATSAPP_OPERATOR_SUBJECT", "uid-1")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.Equal(t, "uid-1", cfg.WhatsApp.OperatorSubject)
	assert.Equal(t, "app-secret", cfg.WhatsApp.AppSecret)
}
