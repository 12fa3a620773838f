package config

import (
	"os"
)

type Config struct {
	TableName string
	IndexName string
	Region    string
}

// LoadConfig reads the runtime configuration from the environment,
// with defaults suitable for local development.
func LoadConfig() Config {
	tableName := os.Getenv("TABLE_NAME")
	if tableName == "" {
		tableName = "divvy-dev"
	}
	indexName := os.Getenv("INDEX_NAME")
	if indexName == "" {
		indexName = "GSI1"
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	return Config{
		TableName: tableName,
		IndexName: indexName,
		Region:    region,
	}
}
