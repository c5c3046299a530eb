// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/roomserver/models"
	"github.com/wfunc/roomserver/registry"
)

// GormStore 是 registry.Store 的 PostgreSQL 实现。成员写入用
// 条件更新（member_count < max_players）做比较交换，容量检查和
// 写入在同一个事务里完成。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建GORM PostgreSQL存储
func NewGormStore(host string, port int, user, password, dbname string) (*GormStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gl := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gl,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormRoom{}, &models.GormMember{}); err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

// DB 暴露底层连接给需要跑事务的服务层
func (p *GormStore) DB() *gorm.DB {
	return p.db
}

func (p *GormStore) FindRoom(roomID string) (*models.Room, error) {
	var row models.GormRoom
	if err := p.db.Where("room_id = ?", roomID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, registry.ErrRoomNotFound
		}
		return nil, err
	}
	return toRoom(&row), nil
}

func (p *GormStore) CreateRoom(room *models.Room) error {
	row := models.GormRoom{
		RoomID:      room.ID,
		Name:        room.Name,
		MaxPlayers:  room.MaxPlayers,
		MemberCount: room.MemberCount,
		Phase:       room.Phase,
	}
	if err := p.db.Create(&row).Error; err != nil {
		return err
	}
	return nil
}

func (p *GormStore) InsertMember(member *models.Member) (*models.Room, error) {
	var updated *models.Room

	err := p.db.Transaction(func(tx *gorm.DB) error {
		// 比较交换：只有计数仍低于容量时递增才会生效，
		// 两个并发请求抢最后一个空位时只有一个能改到行
		res := tx.Model(&models.GormRoom{}).
			Where("room_id = ? AND member_count < max_players", member.RoomID).
			Update("member_count", gorm.Expr("member_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 输掉交换：区分房间不存在和已满
			var row models.GormRoom
			if err := tx.Where("room_id = ?", member.RoomID).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return registry.ErrRoomNotFound
				}
				return err
			}
			return registry.ErrRoomFull
		}

		memberRow := models.GormMember{
			MemberID: member.ID,
			Name:     member.Name,
			RoomID:   member.RoomID,
		}
		if err := tx.Create(&memberRow).Error; err != nil {
			return err
		}

		var row models.GormRoom
		if err := tx.Where("room_id = ?", member.RoomID).First(&row).Error; err != nil {
			return err
		}
		updated = toRoom(&row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (p *GormStore) RemoveMember(memberID string) (*models.Room, error) {
	var updated *models.Room

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var memberRow models.GormMember
		if err := tx.Where("member_id = ?", memberID).First(&memberRow).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return registry.ErrMemberNotFound
			}
			return err
		}

		if err := tx.Delete(&memberRow).Error; err != nil {
			return err
		}

		// 删除和计数递减在同一事务里落库
		res := tx.Model(&models.GormRoom{}).
			Where("room_id = ? AND member_count > 0", memberRow.RoomID).
			Update("member_count", gorm.Expr("member_count - 1"))
		if res.Error != nil {
			return res.Error
		}

		var row models.GormRoom
		if err := tx.Where("room_id = ?", memberRow.RoomID).First(&row).Error; err != nil {
			return err
		}
		updated = toRoom(&row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (p *GormStore) ListMembers(roomID string) ([]*models.Member, error) {
	var rows []models.GormMember
	if err := p.db.Where("room_id = ?", roomID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]*models.Member, 0, len(rows))
	for i := range rows {
		members = append(members, &models.Member{
			ID:       rows[i].MemberID,
			Name:     rows[i].Name,
			RoomID:   rows[i].RoomID,
			JoinedAt: rows[i].CreatedAt,
		})
	}
	return members, nil
}

func (p *GormStore) SetPhase(roomID, phase string) error {
	res := p.db.Model(&models.GormRoom{}).
		Where("room_id = ?", roomID).
		Update("phase", phase)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registry.ErrRoomNotFound
	}
	return nil
}

func (p *GormStore) SetTheme(roomID, theme string) error {
	res := p.db.Model(&models.GormRoom{}).
		Where("room_id = ?", roomID).
		Update("theme", theme)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registry.ErrRoomNotFound
	}
	return nil
}

func (p *GormStore) CountRooms() (int, error) {
	var count int64
	if err := p.db.Model(&models.GormRoom{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (p *GormStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRoom(row *models.GormRoom) *models.Room {
	return &models.Room{
		ID:          row.RoomID,
		Name:        row.Name,
		MaxPlayers:  row.MaxPlayers,
		MemberCount: row.MemberCount,
		Phase:       row.Phase,
		Theme:       row.Theme,
		CreatedAt:   row.CreatedAt,
	}
}
