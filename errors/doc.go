// Package errors provides structured error types layered above the codec's
// sentinel taxonomy.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: fault path within the
// container, byte offset, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindSigIndexRange).
//		Path("functions", "3").
//		Offset(42).
//		Detail("index 99 with 2 signatures declared").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SectionOrder("functions", "signatures")
//	err := errors.OutOfBounds(errors.PhaseDecode, errors.KindFuncIndexRange, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
