package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		env      Environment
		hostname string
		want     string
	}{
		{"Development mode", EnvDevelopment, "", DefaultDevAPIURL},
		{"Production on loopback host", EnvProduction, "localhost", DefaultDevAPIURL},
		{"Production on loopback host mixed case", EnvProduction, " LocalHost ", DefaultDevAPIURL},
		{"Production on public host", EnvProduction, "news.example.com", DefaultProdAPIURL},
		{"Production without host", EnvProduction, "", DefaultProdAPIURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveBaseURL(tt.env, tt.hostname, DefaultDevAPIURL, DefaultProdAPIURL)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, EnvDevelopment, ParseEnvironment(""))
	assert.Equal(t, EnvDevelopment, ParseEnvironment("development"))
	assert.Equal(t, EnvDevelopment, ParseEnvironment("TEST"))
	assert.Equal(t, EnvProduction, ParseEnvironment("production"))
	assert.Equal(t, EnvProduction, ParseEnvironment("staging"))
}

func TestEndpointURL(t *testing.T) {
	api := APIConfig{BaseURL: "http://localhost:4460/", Endpoints: DefaultEndpoints()}

	got, err := api.EndpointURL(ResourcePosts)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4460/v1/posts", got)

	got, err = api.EndpointURL(ResourceUsers)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4460/v1/users", got)

	_, err = api.EndpointURL("comments")
	assert.Error(t, err)
}

func TestDefaultEndpoints_ReturnsCopy(t *testing.T) {
	first := DefaultEndpoints()
	first[ResourcePosts] = Endpoint{Path: "/changed", Version: "/v9"}

	assert.Equal(t, Endpoint{Path: "/posts", Version: "/v1"}, DefaultEndpoints()[ResourcePosts])
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:        "development",
			Port:       "5173",
			APIDevURL:  DefaultDevAPIURL,
			APIProdURL: DefaultProdAPIURL,
			DBDriver:   "sqlite",
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Defaults", func(_ *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Relative dev URL", func(c *Config) { c.APIDevURL = "/api" }, true},
		{"Empty prod URL", func(c *Config) { c.APIProdURL = "" }, true},
		{"Negative render wait", func(c *Config) { c.RenderWaitMS = -1 }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"Production postgres without SSL", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBSSLMode = "disable"
		}, true},
		{"Production postgres with SSL", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_ResolvesAPI(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "production")
	t.Setenv("API_HOSTNAME", "news.example.com")
	t.Setenv("API_PROD_URL", "https://api.example.com")
	t.Setenv("DB_SSLMODE", "  REQUIRE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "require", c.DBSSLMode)

	api := c.API()
	assert.Equal(t, EnvProduction, api.Environment)
	assert.Equal(t, "https://api.example.com", api.BaseURL)
}

func TestLoadConfig_DevelopmentDefaults(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultDevAPIURL, c.API().BaseURL)
	assert.Equal(t, 1500, c.RenderWaitMS)
}
