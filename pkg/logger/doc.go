// Package logger builds *slog.Logger instances and keeps attribute names
// consistent across the admission service.
//
// New wraps a JSON or text handler in a ContextHandler that runs registered
// ContextExtractor callbacks on every record, which is how request ids reach
// log lines without being passed around:
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "admissiond"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//
//	log.InfoContext(ctx, "admission denied",
//	    logger.AccountID(id.AccountID),
//	    logger.Operation(string(op)),
//	    logger.Reason(string(dec.Reason)),
//	)
package logger
