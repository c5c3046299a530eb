// phase/phase.go
package phase

import (
	"errors"
)

// Phase 表示房间在游戏推进中所处的阶段
type Phase string

const (
	// AwaitingPlayers 人数未满，等待玩家加入
	AwaitingPlayers Phase = "awaiting_players"
	// ChooseTheme 人数已满，等待选择主题
	ChooseTheme Phase = "choose_theme"
	// Preparing 主题已定，成员加载内容
	Preparing Phase = "preparing"
	// InGame 所有成员就绪，游戏进行中
	InGame Phase = "in_game"
)

func (p Phase) String() string {
	return string(p)
}

// 玩家动作
const (
	ActionSelectTheme  = "select_theme"
	ActionContentReady = "content_ready"
)

// ErrInvalidAction is returned when an action is not valid in the current phase.
var ErrInvalidAction = errors.New("invalid action")

// ForOccupancy 是容量驱动阶段的纯函数：阶段永远由当前人数和容量
// 直接算出，而不是单独维护的标志，因此不可能和真实花名册脱节。
func ForOccupancy(count, max int) Phase {
	if count < max {
		return AwaitingPlayers
	}
	return ChooseTheme
}

// Recompute 在每次成员变动后重新推导阶段。人数跌破容量时无论
// 此前推进到哪个阶段都退回等待；满员只会从等待进入选题，不会把
// 已经推进的房间拽回去。
func Recompute(current Phase, count, max int) Phase {
	if count < max {
		return AwaitingPlayers
	}
	if current == AwaitingPlayers {
		return ChooseTheme
	}
	return current
}

// Machine 保存动作驱动的阶段转换表
type Machine struct {
	transitions map[Phase]map[string]Phase
}

func NewMachine() *Machine {
	return &Machine{
		transitions: map[Phase]map[string]Phase{
			ChooseTheme: {
				ActionSelectTheme: Preparing,
			},
			Preparing: {
				ActionContentReady: InGame,
			},
		},
	}
}

// Apply 返回动作触发的下一阶段。当前阶段不接受该动作时返回
// ErrInvalidAction，调用方不得改动房间状态。
func (m *Machine) Apply(current Phase, action string) (Phase, error) {
	next, ok := m.transitions[current][action]
	if !ok {
		return current, ErrInvalidAction
	}
	return next, nil
}

// Accepts 判断动作在当前阶段是否合法
func (m *Machine) Accepts(current Phase, action string) bool {
	_, ok := m.transitions[current][action]
	return ok
}
