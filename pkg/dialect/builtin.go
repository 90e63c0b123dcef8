package dialect

// Aggregates shared by every built-in dialect.
var standardAggregates = []string{
	"COUNT", "SUM", "AVG", "MIN", "MAX",
	"STDDEV", "STDDEV_POP", "STDDEV_SAMP",
	"VARIANCE", "VAR_POP", "VAR_SAMP",
}

// Ranking and value functions that require OVER.
var standardWindows = []string{
	"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "PERCENT_RANK", "CUME_DIST",
	"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
}

// MySQL is the MySQL dialect.
var MySQL = NewDialect("mysql").
	Aliases("mariadb").
	Quoting(Quoting{Backtick: true, BackslashEscapes: true}).
	Aggregates(standardAggregates...).
	Aggregates(
		"GROUP_CONCAT", "BIT_AND", "BIT_OR", "BIT_XOR",
		"STD", "JSON_ARRAYAGG", "JSON_OBJECTAGG", "ANY_VALUE",
	).
	Windows(standardWindows...).
	Build()

// Hive is the Apache Hive dialect.
var Hive = NewDialect("hive").
	Aliases("spark", "sparksql").
	Quoting(Quoting{Backtick: true, BackslashEscapes: true}).
	Aggregates(standardAggregates...).
	Aggregates(
		"COLLECT_SET", "COLLECT_LIST", "PERCENTILE", "PERCENTILE_APPROX",
		"HISTOGRAM_NUMERIC", "CORR", "COVAR_POP", "COVAR_SAMP",
	).
	Windows(standardWindows...).
	Build()

// PostgreSQL is the PostgreSQL dialect.
var PostgreSQL = NewDialect("postgresql").
	Aliases("postgres", "pg").
	Quoting(Quoting{DoubleQuote: true, DollarQuote: true}).
	Aggregates(standardAggregates...).
	Aggregates(
		"ARRAY_AGG", "STRING_AGG",
		"JSON_AGG", "JSONB_AGG", "JSON_OBJECT_AGG", "JSONB_OBJECT_AGG",
		"BOOL_AND", "BOOL_OR", "EVERY", "BIT_AND", "BIT_OR",
		"CORR", "COVAR_POP", "COVAR_SAMP",
		"PERCENTILE_CONT", "PERCENTILE_DISC", "MODE", "XMLAGG",
	).
	Windows(standardWindows...).
	Build()

// Oracle is the Oracle Database dialect.
var Oracle = NewDialect("oracle").
	Quoting(Quoting{DoubleQuote: true}).
	Aggregates(standardAggregates...).
	Aggregates(
		"LISTAGG", "MEDIAN", "STATS_MODE", "COLLECT",
		"CORR", "COVAR_POP", "COVAR_SAMP",
		"PERCENTILE_CONT", "PERCENTILE_DISC", "XMLAGG",
	).
	Windows(standardWindows...).
	Windows("RATIO_TO_REPORT").
	Build()

// SQLServer is the Microsoft SQL Server dialect.
var SQLServer = NewDialect("sqlserver").
	Aliases("mssql", "tsql").
	Quoting(Quoting{Bracket: true, DoubleQuote: true}).
	Top().
	Aggregates(standardAggregates...).
	Aggregates(
		"COUNT_BIG", "STRING_AGG", "CHECKSUM_AGG", "GROUPING", "GROUPING_ID",
		"STDEV", "STDEVP", "VAR", "VARP", "APPROX_COUNT_DISTINCT",
	).
	Windows(standardWindows...).
	Build()

func init() {
	for _, d := range []*Dialect{MySQL, Hive, PostgreSQL, Oracle, SQLServer} {
		Register(d)
	}
}
