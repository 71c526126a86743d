// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EncodeUUID packs u into 16 bytes, the high 64 bits first, both halves big
// endian.
func EncodeUUID(u uuid.UUID) []byte {
	hi := binary.BigEndian.Uint64(u[:8])
	lo := binary.BigEndian.Uint64(u[8:])
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], hi)
	binary.BigEndian.PutUint64(b[8:], lo)
	return b
}

// isBinaryColumn reports whether a database type name is a binary string
// type. MySQL reports BINARY(16) columns as BINARY while MariaDB may report
// VARBINARY.
func isBinaryColumn(columnType string) bool {
	t := strings.ToUpper(strings.TrimSpace(columnType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	return t == "BINARY" || t == "VARBINARY"
}

// DecodeUUID converts a column value to a UUID. columnType is the database
// type name of the column and may be empty. Binary columns must hold the 16
// byte form; any other column may hold the canonical text form or, failing
// that, the 16 byte form.
func DecodeUUID(src any, columnType string) (uuid.UUID, error) {
	switch v := src.(type) {
	case nil:
		return uuid.Nil, fmt.Errorf("cannot decode NULL as UUID")
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("cannot decode %q as UUID: %w", v, err)
		}
		return u, nil
	case []byte:
		if isBinaryColumn(columnType) {
			if len(v) != 16 {
				return uuid.Nil, fmt.Errorf("cannot decode %d bytes from %s column as UUID", len(v), columnType)
			}
			return uuid.FromBytes(v)
		}
		if u, err := uuid.ParseBytes(v); err == nil {
			return u, nil
		}
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.Nil, fmt.Errorf("cannot decode %q as UUID", v)
	}
	return uuid.Nil, fmt.Errorf("cannot decode %T as UUID", src)
}

// NullUUID scans a UUID stored in any of the forms accepted by DecodeUUID.
// ColumnType may be set to the column's database type name before scanning.
type NullUUID struct {
	UUID       uuid.UUID
	Valid      bool
	ColumnType string
}

// Scan implements sql.Scanner.
func (n *NullUUID) Scan(src any) error {
	if src == nil {
		n.UUID, n.Valid = uuid.Nil, false
		return nil
	}
	u, err := DecodeUUID(src, n.ColumnType)
	if err != nil {
		return err
	}
	n.UUID, n.Valid = u, true
	return nil
}

// Value implements driver.Valuer using the canonical text form.
func (n NullUUID) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.UUID.String(), nil
}
