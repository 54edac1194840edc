package bot

import "go.uber.org/zap"

// checkAccess is a deliberate allow-all stub: the bot serves a single
// operator and real authorization is out of scope. Kept as an explicit
// seam so a whitelist can be reinstated without touching the pipelines.
func (d *Dispatcher) checkAccess(chatID int64) bool {
	d.logger.Debug("access granted", zap.Int64("chat_id", chatID))
	return true
}
