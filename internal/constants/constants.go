package constants

import "time"

const (
	AppName             = "pulse"
	DefaultKeyringUser  = "database-connection"
	DefaultConfigPath   = "~/.config/pulse/pulse.db"
	DefaultSettingsFile = "~/.config/pulse/pulse.yaml"
	Version             = "v0.1.0"

	// DBConnectionEnv overrides the keyring lookup for PostgreSQL.
	DBConnectionEnv = "PULSE_DB_CONNECTION"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Notification categories
	CategoryDaily     = "daily"
	CategoryPeriodic  = "periodic"
	CategoryImmediate = "immediate"

	// Permission values returned by a notification store
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionPrompt  = "prompt"

	// ActionPerformedEvent is the only listener event a store emits.
	ActionPerformedEvent = "actionPerformed"

	DefaultSound = "default"

	// Daily morning batch
	DailyBatchSize = 30
	DailyHour      = 8
	DailyMinute    = 0
	DailyTitle     = "Good Morning!"
	DailyBody      = "Start your day with Madhav Finance - Check your financial updates"

	// Periodic batch: 24h at a 5 minute cadence
	PeriodicBatchSize = 288
	PeriodicInterval  = 5 * time.Minute
	PeriodicTitle     = "Madhav Finance"
	PeriodicBody      = "Check your financial updates"

	ImmediateDelay = 1 * time.Second
	TestTitle      = "Test Notification"
	TestBody       = "Notifications are working."

	// Connectivity
	DefaultProbeURL      = "https://v1.madhavfinance.com"
	CheckInterval        = 10 * time.Second
	SplashDelay          = 1 * time.Second
	PresencePollInterval = 2 * time.Second

	// Delivery constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	DispatchPollInterval   = 1 * time.Second
	DeliveryGracePeriod    = 10 * time.Minute
	NotifierLockfileName   = "pulse-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.pulse"
	TrayExecutable         = "pulse-tray"
	TraySecretHeader       = "X-Pulse-Secret"

	// Delivery statuses
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliveryExpired   = "expired"

	// Settings keys
	SettingPermission           = "permission"
	SettingNotificationsEnabled = "notifications_enabled"
)
