// Package audit records an OperationLog for every attempted metered operation.
//
// Recording is asynchronous and best-effort. Recorder.Record places the log on
// a bounded in-memory queue and returns immediately; a background worker
// groups queued logs into batches and hands them to a BatchWriter (PostgreSQL
// in pkg/pgstore, a RabbitMQ exchange in pkg/audit/amqpsink, or both through
// FanOut). When the queue is full the log is dropped. Write failures are
// logged and counted in Stats but never surface to the request that produced
// the log, and batches are not retried.
//
//	rec := audit.NewRecorder(audit.FanOut(pgStore, amqpSink), audit.Options{})
//	defer rec.Close(shutdownCtx)
//
//	rec.Record(ctx, audit.OperationLog{
//	    AccountID:     accountID,
//	    OperationType: quota.OpMerge,
//	    Status:        audit.StatusSuccess,
//	})
package audit
