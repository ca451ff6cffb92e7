package models

import (
	"fmt"
	"net/url"
)

type DBType string

const (
	DBTypePostgres  DBType = "postgres"
	DBTypeMySQL     DBType = "mysql"
	DBTypeSQLServer DBType = "sqlserver"
)

// DBConnectionConfig describes a database whose schema can be introspected
type DBConnectionConfig struct {
	Type     DBType `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

// GetDriverName returns the database/sql driver registered for the type
func (slf DBConnectionConfig) GetDriverName() string {
	switch slf.Type {
	case DBTypeMySQL:
		return "mysql"
	case DBTypeSQLServer:
		return "sqlserver"
	default:
		return "postgres"
	}
}

// BuildConnectionString returns a DSN in the format the driver expects
func (slf DBConnectionConfig) BuildConnectionString() string {
	switch slf.Type {
	case DBTypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", slf.Username, slf.Password, slf.Host, slf.Port, slf.Database)
	case DBTypeSQLServer:
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(slf.Username, slf.Password),
			Host:     fmt.Sprintf("%s:%d", slf.Host, slf.Port),
			RawQuery: url.Values{"database": {slf.Database}}.Encode(),
		}
		return u.String()
	default:
		sslMode := slf.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			slf.Host, slf.Port, slf.Username, slf.Password, slf.Database, sslMode)
	}
}
