// Package logging configures the service's slog logger and carries request-scoped loggers through context.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    logging.FromContext(ctx).Info("parsing page")
//	}
package logging
