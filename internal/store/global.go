package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// StoreManagerImpl manages the configured store instances. The record and
// compliance stores share one database connection; the status cache may live
// in a separate one.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	db           *sql.DB
	series       contract.SeriesStore
	compliance   contract.ComplianceStore
	cache        contract.CacheStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetSeriesStore returns the contribution record store.
func (mgr *StoreManagerImpl) GetSeriesStore() contract.SeriesStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.series
}

// GetComplianceStore returns the compliance state store.
func (mgr *StoreManagerImpl) GetComplianceStore() contract.ComplianceStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.compliance
}

// GetCacheStore returns the status cache store, or nil when caching is
// disabled.
func (mgr *StoreManagerImpl) GetCacheStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cache
}

// GetStoreDBFilePath returns the path to the SQLite DB file for durable storage.
func GetStoreDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// InitStores initializes the global store manager.
// cacheBackend can be NoneBackend to disable status caching.
func InitStores(storeBackend schema.DatabaseBackend, storeConnStr string, cacheBackend schema.DatabaseBackend, cacheConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		defaultPath := GetStoreDBFilePath()
		db, _, err := openDB(storeBackend, storeConnStr, defaultPath)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize store: %w", err)
			return
		}

		location := storeConnStr
		if storeBackend == schema.SQLiteBackend && location == "" {
			location = defaultPath
		}

		series, err := NewSeriesStore(db, storeBackend)
		if err != nil {
			_ = db.Close()
			initErr = fmt.Errorf("failed to initialize record store: %w", err)
			return
		}

		compliance, err := NewComplianceStore(db, storeBackend, location)
		if err != nil {
			_ = db.Close()
			initErr = fmt.Errorf("failed to initialize compliance store: %w", err)
			return
		}

		cache, err := NewCacheStore(cacheBackend, cacheConnStr)
		if err != nil {
			_ = db.Close()
			initErr = fmt.Errorf("failed to initialize status cache: %w", err)
			return
		}
		if cacheBackend == schema.NoneBackend {
			// A nil cache store makes status builds skip caching entirely.
			cache = nil
		}

		// Assign to global manager
		Manager.db = db
		Manager.series = series
		Manager.compliance = compliance
		Manager.cache = cache
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.cache != nil {
			_ = Manager.cache.Close()
		}
		if Manager.db != nil {
			_ = Manager.db.Close()
		}
	})
}

// ClearStore clears the durable store for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the store tables.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		tables := []string{recordsTable, membersTable, windowsTable, verdictsTable, transitionsTable, recipientsTable, outcomesTable}
		for _, table := range tables {
			if err := clearSQLTable(driverNameFor(backend), connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// ClearCache clears the status cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the cache table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTable(driverNameFor(backend), connStr, cacheTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
