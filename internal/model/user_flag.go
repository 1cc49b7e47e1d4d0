package model

// 前端横幅等一次性提示的固定键
const (
	FlagTranscriptBannerDismissed = "transcript_banner_dismissed"
	FlagSessionBannerDismissed    = "session_banner_dismissed"
	FlagProjectedBannerDismissed  = "projected_semester_banner_dismissed"
)

// KnownFlagKeys 允许写入的全部键
var KnownFlagKeys = []string{
	FlagTranscriptBannerDismissed,
	FlagSessionBannerDismissed,
	FlagProjectedBannerDismissed,
}

// IsKnownFlag 判断键是否允许
func IsKnownFlag(key string) bool {
	for _, k := range KnownFlagKeys {
		if k == key {
			return true
		}
	}
	return false
}

// UserFlag 用户界面开关表 — 对应 user_flags
type UserFlag struct {
	UserID  string `gorm:"type:uuid;primaryKey"           json:"user_id"`
	FlagKey string `gorm:"type:varchar(64);primaryKey"    json:"key"`
	Value   bool   `gorm:"not null;default:false"         json:"value"`
	BaseModel
}

// TableName 指定表名
func (UserFlag) TableName() string { return "user_flags" }
