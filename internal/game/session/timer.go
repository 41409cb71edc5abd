package session

import "time"

// 选卡倒计时步长
const countdownTick = time.Second

// --- 定时器控制 ---
// 回调携带启动时的 epoch，阶段变更后旧回调自动作废

func (gs *GameSession) armCountdown(epoch uint64) {
	gs.timerMu.Lock()
	defer gs.timerMu.Unlock()

	if gs.countdownTimer != nil {
		gs.countdownTimer.Stop()
	}
	gs.countdownTimer = time.AfterFunc(countdownTick, func() {
		gs.tickCountdown(epoch)
	})
}

func (gs *GameSession) armCallTimer(epoch uint64) {
	gs.timerMu.Lock()
	defer gs.timerMu.Unlock()

	if gs.callTimer != nil {
		gs.callTimer.Stop()
	}
	gs.callTimer = time.AfterFunc(gs.cfg.CallIntervalDuration(), func() {
		gs.tickCall(epoch)
	})
}

func (gs *GameSession) armResetTimer(epoch uint64) {
	gs.timerMu.Lock()
	defer gs.timerMu.Unlock()

	if gs.resetTimer != nil {
		gs.resetTimer.Stop()
	}
	gs.resetTimer = time.AfterFunc(gs.cfg.ResetDelayDuration(), func() {
		gs.tickReset(epoch)
	})
}

func (gs *GameSession) stopTimers() {
	gs.timerMu.Lock()
	defer gs.timerMu.Unlock()

	if gs.countdownTimer != nil {
		gs.countdownTimer.Stop()
		gs.countdownTimer = nil
	}
	if gs.callTimer != nil {
		gs.callTimer.Stop()
		gs.callTimer = nil
	}
	if gs.resetTimer != nil {
		gs.resetTimer.Stop()
		gs.resetTimer = nil
	}
}
