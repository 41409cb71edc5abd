package bingo

// 扁平化后（行优先，index = row*5+col）的 12 种标准获胜图案：
// 5 行、5 列、2 条对角线
var winPatterns = [12][5]int{
	// 行
	{0, 1, 2, 3, 4},
	{5, 6, 7, 8, 9},
	{10, 11, 12, 13, 14},
	{15, 16, 17, 18, 19},
	{20, 21, 22, 23, 24},
	// 列
	{0, 5, 10, 15, 20},
	{1, 6, 11, 16, 21},
	{2, 7, 12, 17, 22},
	{3, 8, 13, 18, 23},
	{4, 9, 14, 19, 24},
	// 对角线
	{0, 6, 12, 18, 24},
	{4, 8, 12, 16, 20},
}

// freeIndex 扁平化后中心免费格的下标
const freeIndex = 12

// CheckPattern 判定卡片在给定已叫号码下是否命中任一获胜图案。
// 纯函数，无副作用：这是服务端权威的防作弊判定，
// 完全不依赖客户端上报的任何「已标记」状态。
func CheckPattern(card Card, calledNumbers []int) bool {
	if len(card) != Columns {
		return false
	}

	// 列优先转行优先
	var flat [Columns * Rows]int
	for col := range Columns {
		if len(card[col]) != Rows {
			return false
		}
		for row := range Rows {
			flat[row*Columns+col] = card[col][row]
		}
	}

	called := make(map[int]bool, len(calledNumbers))
	for _, n := range calledNumbers {
		called[n] = true
	}

	for _, pattern := range winPatterns {
		hit := true
		for _, idx := range pattern {
			// 中心免费格视为永远已标记
			if idx == freeIndex || flat[idx] == FreeCell {
				continue
			}
			if !called[flat[idx]] {
				hit = false
				break
			}
		}
		if hit {
			return true
		}
	}
	return false
}
