package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/config"
)

func testEnvConfig() *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Driver: "memory"},
		Socrata: config.SocrataConfig{BaseURL: "https://data.wa.gov", Dataset: "7xux-kdpf"},
		Webdir:  config.WebdirConfig{URL: "https://chamber.example.com/listings"},
		Enrich:  config.EnrichConfig{Source: "socrata", BatchSize: 10, Concurrency: 4},
	}
}

func setTestConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitEnv_DefaultSourceIsSocrata(t *testing.T) {
	setTestConfig(t, testEnvConfig())

	env, err := initEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "socrata", env.Refresher.Source())
}

func TestInitEnv_SelectsConfiguredSource(t *testing.T) {
	c := testEnvConfig()
	c.Enrich.Source = "webdir"
	setTestConfig(t, c)

	env, err := initEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "webdir", env.Refresher.Source())
	assert.Equal(t, []string{"socrata", "webdir"}, env.Sources.Names())
}

func TestInitEnv_UnknownSourceListsAvailable(t *testing.T) {
	c := testEnvConfig()
	c.Enrich.Source = "yelp"
	setTestConfig(t, c)

	_, err := initEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown enrichment source "yelp"`)
	assert.Contains(t, err.Error(), "socrata, webdir")
}
