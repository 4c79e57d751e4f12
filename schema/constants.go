package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// Tier represents the risk classification assigned to a patient.
	Tier string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// Feature names one numeric column of a patient record.
	Feature string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All risk tiers, from most to least urgent.
const (
	HighTier   Tier = "High"
	MediumTier Tier = "Medium"
	StableTier Tier = "Stable"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// Feature columns of a record.
const (
	SleepHours      Feature = "sleep_hours"
	ActivityLevel   Feature = "activity_level"
	MoodScore       Feature = "mood_score"
	TherapyAttended Feature = "therapy_attended"
	HeartRate       Feature = "heart_rate"
	StressLevel     Feature = "stress_level"
)

// Column names that are not features.
const (
	PatientIDColumn = "patient_id"
	DateColumn      = "date"
)

// ModelFeatures lists the anomaly model inputs in their fixed column order.
var ModelFeatures = []Feature{SleepHours, ActivityLevel, MoodScore, TherapyAttended, HeartRate, StressLevel}

// AllTiers returns a list of all tiers from most to least urgent.
var AllTiers = []Tier{HighTier, MediumTier, StableTier}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid score cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidStoreBackends lists all valid assessment history backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
