// Package all links every storage backend and the SQL Server driver.
package all

import (
	_ "github.com/microsoft/go-mssqldb"

	_ "github.com/Odelialan/Sales-Data-Analysis/internal/storage/csv"
	_ "github.com/Odelialan/Sales-Data-Analysis/internal/storage/mssql"
	_ "github.com/Odelialan/Sales-Data-Analysis/internal/storage/postgres"
	_ "github.com/Odelialan/Sales-Data-Analysis/internal/storage/sqlite"
	_ "github.com/Odelialan/Sales-Data-Analysis/internal/storage/xlsx"
)
