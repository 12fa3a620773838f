package repository

import "fmt"

// Config carries the physical table settings shared by every
// repository implementation: one table, one secondary index.
type Config struct {
	TableName string // Primary table name
	IndexName string // Global secondary index name
	Region    string // Store region (for cloud stores)
}

// Validate checks that the configuration names the table and index.
func (c Config) Validate() error {
	if c.TableName == "" {
		return fmt.Errorf("TableName is required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("IndexName is required")
	}
	return nil
}

// NewConfig creates a repository configuration.
func NewConfig(tableName, indexName string) Config {
	return Config{TableName: tableName, IndexName: indexName}
}
