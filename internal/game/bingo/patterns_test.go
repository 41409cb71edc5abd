package bingo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testCard 每列取区间前五个号码，中心为 FreeCell
func testCard() Card {
	card := make(Card, Columns)
	for c := range card {
		min, _ := ColumnRange(c)
		card[c] = []int{min, min + 1, min + 2, min + 3, min + 4}
	}
	card[2][2] = FreeCell
	return card
}

func TestCheckPattern_Row(t *testing.T) {
	card := testCard()

	// 第一行: 每列的第一个号码
	called := []int{1, 16, 31, 46, 61}
	assert.True(t, CheckPattern(card, called))

	// 差一个号码不算赢
	assert.False(t, CheckPattern(card, called[:4]))
}

func TestCheckPattern_RowThroughFreeCell(t *testing.T) {
	card := testCard()

	// 第三行经过中心格，只需要其余四个号码
	called := []int{3, 18, 48, 63}
	assert.True(t, CheckPattern(card, called))
}

func TestCheckPattern_Column(t *testing.T) {
	card := testCard()

	// B 列整列
	assert.True(t, CheckPattern(card, []int{1, 2, 3, 4, 5}))
	assert.False(t, CheckPattern(card, []int{1, 2, 3, 4}))
}

func TestCheckPattern_Diagonals(t *testing.T) {
	card := testCard()

	// 主对角线: card[0][0], card[1][1], FREE, card[3][3], card[4][4]
	assert.True(t, CheckPattern(card, []int{1, 17, 49, 65}))

	// 副对角线: card[4][0], card[3][1], FREE, card[1][3], card[0][4]
	assert.True(t, CheckPattern(card, []int{61, 47, 19, 5}))
}

func TestCheckPattern_NoWin(t *testing.T) {
	card := testCard()

	assert.False(t, CheckPattern(card, nil))
	// 散落的号码凑不成任何线
	assert.False(t, CheckPattern(card, []int{1, 17, 33, 50, 64}))
}

func TestCheckPattern_IrrelevantNumbers(t *testing.T) {
	card := testCard()

	// 未出现在卡上的号码不影响判定
	called := []int{1, 16, 31, 46, 61, 75, 74, 73}
	assert.True(t, CheckPattern(card, called))
}

func TestCheckPattern_MalformedCard(t *testing.T) {
	assert.False(t, CheckPattern(nil, []int{1, 2, 3}))
	assert.False(t, CheckPattern(Card{{1, 2}}, []int{1, 2, 3}))
}
