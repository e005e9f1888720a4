package logging

// Field names shared by every component so that log output can be filtered
// by bank, import batch or row.
const (
	FieldBank      = "bank"
	FieldParser    = "parser"
	FieldImportID  = "import_id"
	FieldLine      = "line"
	FieldRow       = "row"
	FieldColumn    = "column"
	FieldValue     = "value"
	FieldKeyword   = "keyword"
	FieldCategory  = "category"
	FieldField     = "field"
	FieldCount     = "count"
	FieldDelimiter = "delimiter"
	FieldFile      = "file_path"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)
