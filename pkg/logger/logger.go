package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	// Set output format
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithIdentity creates a new logger entry with the acting wallet address
func (l *Logger) WithIdentity(identity string) *logrus.Entry {
	return l.Logger.WithField("identity", identity)
}

// Audit logs audit events with structured format
func (l *Logger) Audit(identity, action, resource string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":    true,
		"identity": identity,
		"action":   action,
		"resource": resource,
		"success":  success,
		"details":  details,
	})

	if success {
		entry.Info("Audit event")
	} else {
		entry.Warn("Audit event failed")
	}
}

// WalletEvent logs wallet session lifecycle and provider notifications
func (l *Logger) WalletEvent(event, identity string, details map[string]interface{}) {
	l.Logger.WithFields(logrus.Fields{
		"wallet":   true,
		"event":    event,
		"identity": identity,
		"details":  details,
	}).Info("Wallet event")
}

// ChainTransaction logs registry transaction lifecycle events
func (l *Logger) ChainTransaction(operation, intentID, txHash string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"transaction": true,
		"operation":   operation,
		"intent_id":   intentID,
		"tx_hash":     txHash,
		"success":     success,
		"details":     details,
	})

	if success {
		entry.Info("Registry transaction completed")
	} else {
		entry.Error("Registry transaction failed")
	}
}

// HTTPRequest logs HTTP request events
func (l *Logger) HTTPRequest(method, path, clientIP string, statusCode int, durationMS int64) {
	entry := l.Logger.WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"client_ip":    clientIP,
		"status_code":  statusCode,
		"duration_ms":  durationMS,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}
