package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect SQL方言，决定占位符和自增主键写法
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectFor 根据 database/sql 驱动名选择方言
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return DialectSQLite, nil
	case "postgres":
		return DialectPostgres, nil
	}
	return DialectSQLite, fmt.Errorf("unsupported database driver %q", driver)
}

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind 把 ? 占位符改写为方言的写法，postgres 使用 $1、$2……
//
// 单引号字符串中的 ? 不会被改写。
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var out strings.Builder
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
			out.WriteRune(r)
		case r == '?' && !quoted:
			n++
			out.WriteString("$" + strconv.Itoa(n))
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func (d Dialect) autoIncrementKey() string {
	if d == DialectPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// ========================================
// SELECT
// ========================================

// SelectBuilder SELECT查询构建器
type SelectBuilder struct {
	dialect    Dialect
	table      string
	selectCols []string
	whereConds []string
	orderBy    []string
	limitVal   int
	offsetVal  int
	args       []interface{}
}

// NewSelectBuilder 创建SELECT构建器，不指定列时查询全部列
func NewSelectBuilder(dialect Dialect, table string, cols ...string) *SelectBuilder {
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	return &SelectBuilder{
		dialect:    dialect,
		table:      table,
		selectCols: cols,
		args:       make([]interface{}, 0),
	}
}

// Where 添加WHERE条件，多个条件以AND连接
func (b *SelectBuilder) Where(condition string, args ...interface{}) *SelectBuilder {
	b.whereConds = append(b.whereConds, condition)
	b.args = append(b.args, args...)
	return b
}

// OrderBy 添加ORDER BY
func (b *SelectBuilder) OrderBy(cols ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, cols...)
	return b
}

// Limit 设置LIMIT
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limitVal = n
	return b
}

// Offset 设置OFFSET
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offsetVal = n
	return b
}

// Args 获取参数
func (b *SelectBuilder) Args() []interface{} {
	return b.args
}

// Build 构建SQL语句
func (b *SelectBuilder) Build() string {
	var query strings.Builder

	query.WriteString("SELECT ")
	query.WriteString(strings.Join(b.selectCols, ", "))
	query.WriteString(" FROM " + b.table)

	if len(b.whereConds) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(b.whereConds, " AND "))
	}

	if len(b.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limitVal > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT %d", b.limitVal))
	} else if b.offsetVal > 0 && b.dialect == DialectSQLite {
		// SQLite 的 OFFSET 必须跟在 LIMIT 之后
		query.WriteString(" LIMIT -1")
	}
	if b.offsetVal > 0 {
		query.WriteString(fmt.Sprintf(" OFFSET %d", b.offsetVal))
	}

	return b.dialect.Rebind(query.String())
}

// ========================================
// INSERT
// ========================================

// InsertBuilder INSERT构建器，可选 ON CONFLICT 更新
type InsertBuilder struct {
	dialect    Dialect
	table      string
	cols       []string
	rows       int
	args       []interface{}
	onConflict []string
	updateCols []string
}

// NewInsertBuilder 创建INSERT构建器
func NewInsertBuilder(dialect Dialect, table string) *InsertBuilder {
	return &InsertBuilder{
		dialect: dialect,
		table:   table,
		args:    make([]interface{}, 0),
	}
}

// Columns 设置列
func (i *InsertBuilder) Columns(cols ...string) *InsertBuilder {
	i.cols = append(i.cols, cols...)
	return i
}

// Values 添加一行值，值的个数必须与列数一致
func (i *InsertBuilder) Values(vals ...interface{}) *InsertBuilder {
	i.rows++
	i.args = append(i.args, vals...)
	return i
}

// OnConflict 冲突时不插入；配合 DoUpdate 使用时更新指定列
func (i *InsertBuilder) OnConflict(cols ...string) *InsertBuilder {
	i.onConflict = append(i.onConflict, cols...)
	return i
}

// DoUpdate 冲突时用新行的值更新这些列
func (i *InsertBuilder) DoUpdate(cols ...string) *InsertBuilder {
	i.updateCols = append(i.updateCols, cols...)
	return i
}

// Build 构建INSERT语句
func (i *InsertBuilder) Build() string {
	var query strings.Builder

	query.WriteString("INSERT INTO " + i.table)
	if len(i.cols) > 0 {
		query.WriteString(" (" + strings.Join(i.cols, ", ") + ")")
	}

	if i.rows > 0 {
		placeholders := make([]string, len(i.cols))
		for j := range placeholders {
			placeholders[j] = "?"
		}
		row := "(" + strings.Join(placeholders, ", ") + ")"

		query.WriteString(" VALUES ")
		for idx := 0; idx < i.rows; idx++ {
			if idx > 0 {
				query.WriteString(", ")
			}
			query.WriteString(row)
		}
	}

	if len(i.onConflict) > 0 {
		query.WriteString(" ON CONFLICT (" + strings.Join(i.onConflict, ", ") + ")")
		if len(i.updateCols) == 0 {
			query.WriteString(" DO NOTHING")
		} else {
			sets := make([]string, len(i.updateCols))
			for j, col := range i.updateCols {
				sets[j] = col + " = excluded." + col
			}
			query.WriteString(" DO UPDATE SET " + strings.Join(sets, ", "))
		}
	}

	return i.dialect.Rebind(query.String())
}

// Args 返回参数列表
func (i *InsertBuilder) Args() []interface{} {
	return i.args
}

// ========================================
// DELETE
// ========================================

// DeleteBuilder DELETE构建器
type DeleteBuilder struct {
	dialect    Dialect
	table      string
	conditions []string
	args       []interface{}
}

// NewDeleteBuilder 创建DELETE构建器
func NewDeleteBuilder(dialect Dialect, table string) *DeleteBuilder {
	return &DeleteBuilder{
		dialect: dialect,
		table:   table,
		args:    make([]interface{}, 0),
	}
}

// Where 设置WHERE条件
func (d *DeleteBuilder) Where(condition string, args ...interface{}) *DeleteBuilder {
	d.conditions = append(d.conditions, condition)
	d.args = append(d.args, args...)
	return d
}

// Build 构建DELETE语句
func (d *DeleteBuilder) Build() string {
	query := "DELETE FROM " + d.table
	if len(d.conditions) > 0 {
		query += " WHERE " + strings.Join(d.conditions, " AND ")
	}
	return d.dialect.Rebind(query)
}

// Args 返回参数列表
func (d *DeleteBuilder) Args() []interface{} {
	return d.args
}
