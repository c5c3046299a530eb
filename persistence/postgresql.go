// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/roomserver/models"
	"github.com/wfunc/roomserver/registry"
)

// SQLStore 是 registry.Store 的原生 database/sql 实现，
// 与 GormStore 契约相同
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore 创建 PostgreSQL 存储
func NewSQLStore(host string, port int, user, password, dbname string) (*SQLStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &SQLStore{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS rooms (
            id SERIAL PRIMARY KEY,
            room_id TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL,
            max_players INT NOT NULL,
            member_count INT NOT NULL DEFAULT 0,
            phase TEXT NOT NULL,
            theme TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS members (
            id SERIAL PRIMARY KEY,
            member_id TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL,
            room_id TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	return err
}

func (p *SQLStore) FindRoom(roomID string) (*models.Room, error) {
	room := &models.Room{}
	err := p.db.QueryRow(
		`SELECT room_id, name, max_players, member_count, phase, theme, created_at
         FROM rooms WHERE room_id = $1`, roomID,
	).Scan(&room.ID, &room.Name, &room.MaxPlayers, &room.MemberCount, &room.Phase, &room.Theme, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (p *SQLStore) CreateRoom(room *models.Room) error {
	_, err := p.db.Exec(
		`INSERT INTO rooms (room_id, name, max_players, member_count, phase)
         VALUES ($1, $2, $3, $4, $5)`,
		room.ID, room.Name, room.MaxPlayers, room.MemberCount, room.Phase,
	)
	return err
}

func (p *SQLStore) InsertMember(member *models.Member) (*models.Room, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 条件更新即比较交换：计数已到容量时改不到任何行
	res, err := tx.Exec(
		`UPDATE rooms SET member_count = member_count + 1
         WHERE room_id = $1 AND member_count < max_players`,
		member.RoomID,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM rooms WHERE room_id = $1)`, member.RoomID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, registry.ErrRoomNotFound
		}
		return nil, registry.ErrRoomFull
	}

	if _, err := tx.Exec(
		`INSERT INTO members (member_id, name, room_id) VALUES ($1, $2, $3)`,
		member.ID, member.Name, member.RoomID,
	); err != nil {
		return nil, err
	}

	room := &models.Room{}
	if err := tx.QueryRow(
		`SELECT room_id, name, max_players, member_count, phase, theme, created_at
         FROM rooms WHERE room_id = $1`, member.RoomID,
	).Scan(&room.ID, &room.Name, &room.MaxPlayers, &room.MemberCount, &room.Phase, &room.Theme, &room.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return room, nil
}

func (p *SQLStore) RemoveMember(memberID string) (*models.Room, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var roomID string
	err = tx.QueryRow(`DELETE FROM members WHERE member_id = $1 RETURNING room_id`, memberID).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		`UPDATE rooms SET member_count = member_count - 1
         WHERE room_id = $1 AND member_count > 0`, roomID,
	); err != nil {
		return nil, err
	}

	room := &models.Room{}
	if err := tx.QueryRow(
		`SELECT room_id, name, max_players, member_count, phase, theme, created_at
         FROM rooms WHERE room_id = $1`, roomID,
	).Scan(&room.ID, &room.Name, &room.MaxPlayers, &room.MemberCount, &room.Phase, &room.Theme, &room.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return room, nil
}

func (p *SQLStore) ListMembers(roomID string) ([]*models.Member, error) {
	rows, err := p.db.Query(
		`SELECT member_id, name, room_id, created_at
         FROM members WHERE room_id = $1 ORDER BY id ASC`, roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m := &models.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.RoomID, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (p *SQLStore) SetPhase(roomID, phase string) error {
	res, err := p.db.Exec(`UPDATE rooms SET phase = $1 WHERE room_id = $2`, phase, roomID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return registry.ErrRoomNotFound
	}
	return nil
}

func (p *SQLStore) SetTheme(roomID, theme string) error {
	res, err := p.db.Exec(`UPDATE rooms SET theme = $1 WHERE room_id = $2`, theme, roomID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return registry.ErrRoomNotFound
	}
	return nil
}

func (p *SQLStore) CountRooms() (int, error) {
	var count int
	if err := p.db.QueryRow(`SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *SQLStore) Close() error {
	return p.db.Close()
}
