package pipeline

// URI schemes understood by the loader.
const (
	// SchemeBigQuery marks a table URI (bq://project.dataset.table) that is
	// loaded through a TransactionSource instead of the text parser.
	SchemeBigQuery = "bq"

	// readBufferSize sizes the parser's read buffer. Longer lines are still
	// read whole.
	readBufferSize = 64 * 1024
)
