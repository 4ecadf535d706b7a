package db

import "fmt"

// DBConfigFromYamlObj builds the runtime DB config from the parsed yaml
// block. Credentials may have been overridden from env vars by the caller
// before this is called.
func DBConfigFromYamlObj(yamlObj DBConfigYaml) DBConfig {
	uri := yamlObj.ConnectionStr
	if yamlObj.Username != "" || yamlObj.Password != "" {
		uri = fmt.Sprintf(`mongodb%s://%s:%s@%s`, yamlObj.ConnectionPrefix, yamlObj.Username, yamlObj.Password, yamlObj.ConnectionStr)
	}

	timeout := yamlObj.Timeout
	if timeout < 1 {
		timeout = 30
	}
	idleConnTimeout := yamlObj.IdleConnTimeout
	if idleConnTimeout < 1 {
		idleConnTimeout = 45
	}
	maxPoolSize := yamlObj.MaxPoolSize
	if maxPoolSize < 1 {
		maxPoolSize = 8
	}

	return DBConfig{
		URI:              uri,
		Timeout:          timeout,
		IdleConnTimeout:  idleConnTimeout,
		MaxPoolSize:      uint64(maxPoolSize),
		DBNamePrefix:     yamlObj.DBNamePrefix,
		RunIndexCreation: yamlObj.RunIndexCreation,
	}
}
