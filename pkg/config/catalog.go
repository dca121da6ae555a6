package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Catalog registros de catálogo para sembrar el almacén (modo demo / entorno local).
type Catalog struct {
	Labels []struct {
		ID   string `mapstructure:"id"`
		Name string `mapstructure:"name"`
	} `mapstructure:"labels"`
	Releases []struct {
		ID      string `mapstructure:"id"`
		LabelID string `mapstructure:"label_id"`
		Name    string `mapstructure:"name"`
	} `mapstructure:"releases"`
	Distributors []struct {
		ID          string `mapstructure:"id"`
		LabelID     string `mapstructure:"label_id"`
		Name        string `mapstructure:"name"`
		ChannelType string `mapstructure:"channel_type"`
	} `mapstructure:"distributors"`
}

// LoadCatalog lee el archivo de catálogo; el formato lo deduce Viper por la extensión.
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("leer catálogo %s: %w", path, err)
	}
	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decodificar catálogo %s: %w", path, err)
	}
	return &c, nil
}
