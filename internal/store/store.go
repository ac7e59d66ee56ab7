package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/webdav-gateway/davclient/internal/config"
	"github.com/webdav-gateway/davclient/internal/types"
	"github.com/webdav-gateway/davclient/internal/webdav"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

const propertiesTable = "properties"

var recordColumns = []string{
	"id", "server", "resource_id", "href", "namespace", "name", "value", "status", "is_live", "created_at", "updated_at",
}

// Record 导出表中的一行：某个服务器上某个资源的一个属性
type Record struct {
	ID         int64
	Server     string
	ResourceID string
	Href       string
	Namespace  string
	Name       string
	// Value 属性元素序列化后的XML
	Value     string
	Status    int
	IsLive    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store 把解析后的multistatus导出到SQL数据库
type Store struct {
	db          *sql.DB
	dialect     Dialect
	logger      *logrus.Logger
	serializer  *xmlutil.Serializer
	mu          sync.Mutex
	initialised bool
}

// Open 按数据库配置打开存储
func Open(cfg *config.Config, logger *logrus.Logger) (*Store, error) {
	driver := cfg.GetDriverName()
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if dialect == DialectSQLite {
		// sqlite 同一时间只允许一个写连接
		db.SetMaxOpenConns(1)
	}

	return New(db, dialect, logger), nil
}

// New 使用已打开的连接创建存储
func New(db *sql.DB, dialect Dialect, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		db:         db,
		dialect:    dialect,
		logger:     logger,
		serializer: xmlutil.NewSerializer().WithoutDeclaration(),
	}
}

// Initialize 创建表和索引，可重复调用
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialised {
		return nil
	}

	if err := s.createPropertiesTable(ctx); err != nil {
		return fmt.Errorf("创建属性表失败: %w", err)
	}
	if err := s.createIndexes(ctx); err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}

	s.initialised = true
	return nil
}

func (s *Store) createPropertiesTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS properties (
			id ` + s.dialect.autoIncrementKey() + `,
			server TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			href TEXT NOT NULL,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT,
			status INTEGER DEFAULT 0,
			is_live BOOLEAN DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			UNIQUE(server, href, namespace, name)
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Store) createIndexes(ctx context.Context) error {
	indexes := []struct {
		name string
		sql  string
	}{
		{"idx_properties_server_href", "CREATE INDEX IF NOT EXISTS idx_properties_server_href ON properties(server, href)"},
		{"idx_properties_namespace", "CREATE INDEX IF NOT EXISTS idx_properties_namespace ON properties(namespace)"},
		{"idx_properties_resource", "CREATE INDEX IF NOT EXISTS idx_properties_resource ON properties(resource_id)"},
	}

	for _, index := range indexes {
		if _, err := s.db.ExecContext(ctx, index.sql); err != nil {
			return fmt.Errorf("创建索引 %s 失败: %w", index.name, err)
		}
	}
	return nil
}

// ResourceID 资源的稳定标识，由服务器地址和href决定
func ResourceID(server, href string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(server+href)).String()
}

// SaveMultistatus 在一个事务中写入multistatus的全部属性，返回写入的行数
//
// 已存在的 (server, href, namespace, name) 行会被更新。
func (s *Store) SaveMultistatus(ctx context.Context, server string, ms *webdav.Multistatus) (int, error) {
	if ms == nil {
		return 0, types.NewError(types.KindMissingRequiredParameter, "multistatus is required")
	}
	if err := s.Initialize(ctx); err != nil {
		return 0, err
	}

	records, err := s.recordsFor(server, ms)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		builder := NewInsertBuilder(s.dialect, propertiesTable).
			Columns("server", "resource_id", "href", "namespace", "name", "value", "status", "is_live", "created_at", "updated_at").
			Values(record.Server, record.ResourceID, record.Href, record.Namespace, record.Name, record.Value, record.Status, record.IsLive, record.CreatedAt.Unix(), record.UpdatedAt.Unix()).
			OnConflict("server", "href", "namespace", "name").
			DoUpdate("resource_id", "value", "status", "is_live", "updated_at")

		if _, err := tx.ExecContext(ctx, builder.Build(), builder.Args()...); err != nil {
			return 0, fmt.Errorf("写入属性 {%s}%s 失败: %w", record.Namespace, record.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"server":    server,
		"responses": ms.Len(),
		"rows":      len(records),
	}).Info("multistatus exported")
	return len(records), nil
}

func (s *Store) recordsFor(server string, ms *webdav.Multistatus) ([]Record, error) {
	now := time.Now()
	var records []Record

	for _, resp := range ms.Responses() {
		responseStatus := 0
		if resp.Status != "" {
			if code, err := types.ParseStatusCode(resp.Status); err == nil {
				responseStatus = code
			}
		}

		for _, prop := range resp.Properties() {
			el, err := prop.ToElement()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", resp.Href, err)
			}
			value, err := s.serializer.SerializeString(el)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", resp.Href, err)
			}

			status := responseStatus
			if code, ok := prop.Status(); ok {
				status = code
			}

			records = append(records, Record{
				Server:     server,
				ResourceID: ResourceID(server, resp.Href),
				Href:       resp.Href,
				Namespace:  prop.Namespace(),
				Name:       prop.LocalName(),
				Value:      value,
				Status:     status,
				IsLive:     types.IsLiveProperty(prop.Namespace(), prop.LocalName()),
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
	}
	return records, nil
}

// List 列出服务器上某个href的全部属性；href 为空时列出该服务器的全部属性
func (s *Store) List(ctx context.Context, server, href string) ([]Record, error) {
	return s.ListPage(ctx, server, href, 0, 0)
}

// ListPage 分页查询，limit 为0表示不限制
func (s *Store) ListPage(ctx context.Context, server, href string, limit, offset int) ([]Record, error) {
	if limit < 0 || offset < 0 {
		return nil, types.NewError(types.KindWrongValue, "limit and offset must not be negative")
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	builder := NewSelectBuilder(s.dialect, propertiesTable, recordColumns...).
		Where("server = ?", server)
	if href != "" {
		builder.Where("href = ?", href)
	}
	builder.OrderBy("href", "namespace", "name").
		Limit(limit).
		Offset(offset)

	rows, err := s.db.QueryContext(ctx, builder.Build(), builder.Args()...)
	if err != nil {
		return nil, fmt.Errorf("查询属性列表失败: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Delete 删除某个href的全部属性，返回删除的行数
func (s *Store) Delete(ctx context.Context, server, href string) (int64, error) {
	if err := s.Initialize(ctx); err != nil {
		return 0, err
	}

	builder := NewDeleteBuilder(s.dialect, propertiesTable).
		Where("server = ?", server).
		Where("href = ?", href)

	result, err := s.db.ExecContext(ctx, builder.Build(), builder.Args()...)
	if err != nil {
		return 0, fmt.Errorf("删除属性失败: %w", err)
	}
	return result.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var record Record
		var value sql.NullString
		var createdAt, updatedAt int64
		err := rows.Scan(
			&record.ID,
			&record.Server,
			&record.ResourceID,
			&record.Href,
			&record.Namespace,
			&record.Name,
			&value,
			&record.Status,
			&record.IsLive,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描属性记录失败: %w", err)
		}
		record.Value = value.String
		record.CreatedAt = time.Unix(createdAt, 0)
		record.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck 健康检查
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
