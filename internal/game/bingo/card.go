package bingo

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

const (
	// 卡片尺寸
	Columns = 5
	Rows    = 5

	// 每列号码区间宽度：第 c 列覆盖 [15c+1, 15c+15]
	ColumnSpan = 15

	// 最大号码（美式 75 球 Bingo）
	MaxNumber = Columns * ColumnSpan

	// FreeCell 中心免费格哨兵值
	FreeCell = 0

	// 随机抽取的尝试上限，超过后转为确定性扫描
	// 确定性兜底保证生成永远终止且绝不产生重复号码
	maxDrawAttempts = 20
)

// Card 按列组织的 5x5 卡片：Card[col][row]，中心格 [2][2] 为 FreeCell
type Card [][]int

// freeMarker 中心格在线上协议中的表示
const freeMarker = "FREE"

// MarshalJSON 按 Web 客户端约定输出：列优先二维数组，中心格为字符串 "FREE"
func (c Card) MarshalJSON() ([]byte, error) {
	out := make([][]any, len(c))
	for col := range c {
		out[col] = make([]any, len(c[col]))
		for row, n := range c[col] {
			if n == FreeCell {
				out[col][row] = freeMarker
			} else {
				out[col][row] = n
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 接受数字、null 与 "FREE" 三种格子表示
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw [][]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	card := make(Card, len(raw))
	for col := range raw {
		card[col] = make([]int, len(raw[col]))
		for row, v := range raw[col] {
			switch cell := v.(type) {
			case nil:
				card[col][row] = FreeCell
			case string:
				if cell != freeMarker {
					return fmt.Errorf("无法识别的格子值: %q", cell)
				}
				card[col][row] = FreeCell
			case float64:
				card[col][row] = int(cell)
			default:
				return fmt.Errorf("无法识别的格子类型: %T", v)
			}
		}
	}
	*c = card
	return nil
}

// ColumnRange 返回第 col 列的号码区间 [min, max]
func ColumnRange(col int) (int, int) {
	min := col*ColumnSpan + 1
	return min, min + ColumnSpan - 1
}

// CardProfile 卡片生成档案：按列区间半段调节抽取接受概率
// 偏置只影响号码分布，绝不影响卡片形状，也绝不阻塞生成终止
type CardProfile struct {
	Name     string
	LowBias  float64 // 接受列区间低半段号码的概率 (0,1]
	HighBias float64 // 接受列区间高半段号码的概率 (0,1]
}

// 预定义档案；未知的 cardType 回退到 standard
var profiles = map[string]CardProfile{
	"standard":  {Name: "standard", LowBias: 1, HighBias: 1},
	"low-ball":  {Name: "low-ball", LowBias: 1, HighBias: 0.4},
	"top-heavy": {Name: "top-heavy", LowBias: 0.4, HighBias: 1},
}

// ProfileFor 按名称查找档案，未知名称回退到 standard
func ProfileFor(name string) CardProfile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles["standard"]
}

// Generate 生成一张卡片：每列 5 个互不重复的区间内号码，中心格为 FreeCell
func Generate(profileName string) Card {
	profile := ProfileFor(profileName)

	card := make(Card, Columns)
	for col := range Columns {
		card[col] = generateColumn(col, profile)
	}
	card[Columns/2][Rows/2] = FreeCell
	return card
}

// generateColumn 生成一列号码
func generateColumn(col int, profile CardProfile) []int {
	min, max := ColumnRange(col)
	mid := (min + max) / 2

	used := make(map[int]bool, Rows)
	column := make([]int, 0, Rows)

	for len(column) < Rows {
		n, ok := drawNumber(min, max, mid, used, profile)
		if !ok {
			// 尝试耗尽：确定性扫描本列未使用的号码
			n = scanUnused(min, max, used)
		}
		used[n] = true
		column = append(column, n)
	}
	return column
}

// drawNumber 随机抽取一个未使用且通过偏置接受检查的号码
func drawNumber(min, max, mid int, used map[int]bool, profile CardProfile) (int, bool) {
	for range maxDrawAttempts {
		n := min + rand.IntN(max-min+1)
		if used[n] {
			continue
		}
		accept := profile.LowBias
		if n > mid {
			accept = profile.HighBias
		}
		if accept >= 1 || rand.Float64() < accept {
			return n, true
		}
	}
	return 0, false
}

// scanUnused 返回区间内第一个未使用的号码
// 每列最多使用 5 个号码而区间宽度为 15，扫描必定命中
func scanUnused(min, max int, used map[int]bool) int {
	for n := min; n <= max; n++ {
		if !used[n] {
			return n
		}
	}
	// 不可达：调用方保证 used 的数量远小于区间宽度
	return min
}

// ValidateShape 校验客户端提交的卡片结构：
// 恰好 5 列 x 5 行，中心格为 FreeCell，其余格子在所属列的号码区间内
func ValidateShape(card Card) bool {
	if len(card) != Columns {
		return false
	}
	for col := range card {
		if len(card[col]) != Rows {
			return false
		}
		min, max := ColumnRange(col)
		for row, n := range card[col] {
			if col == Columns/2 && row == Rows/2 {
				if n != FreeCell {
					return false
				}
				continue
			}
			if n < min || n > max {
				return false
			}
		}
	}
	return true
}
