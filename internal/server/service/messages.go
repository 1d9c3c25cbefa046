package service

// Bot replies.
const (
	MsgWelcome = "友だち追加ありがとうございます！オフィスの作業を効率化しよう！" +
		"\n※このアカウントは空想上のプロトタイプなので、実際の挙動とは異なります"
	MsgRegistrationPrompt = "勤怠連携のために従業員登録をお願いします。\n%s"
	MsgClockedIn          = "出勤しました"
	MsgClockedOut         = "退勤しました"
	MsgCorrectionPrompt   = "修正後の出勤時刻と退勤時刻を改行区切りで入力してください\n例)\n09:00\n18:00"
	MsgCorrected          = "打刻を修正しました"
	MsgReceiptUnreadable  = "レシートを読み取れませんでした"
	MsgInternalError      = "処理に失敗しました。時間をおいてもう一度お試しください"
)

// Sticker sent after the welcome message.
const (
	welcomeStickerPackage = "11537"
	welcomeStickerID      = "52002739"
)
