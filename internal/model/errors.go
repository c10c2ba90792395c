// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, detect, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNoFile               = "NO_FILE"
	ErrCodeEmptyFile            = "EMPTY_FILE"
	ErrCodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeStorageFailure       = "STORAGE_FAILURE"
	ErrCodeDuplicateAccount     = "DUPLICATE_ACCOUNT"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeWeakPassword         = "WEAK_PASSWORD"
	ErrCodeInvalidSignup        = "INVALID_SIGNUP"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeAdminOnly            = "ADMIN_ONLY"
	ErrCodeArtifactNotFound     = "ARTIFACT_NOT_FOUND"
)

// NewNoFileError はファイル未添付エラーを生成する。
func NewNoFileError() *APIError {
	return &APIError{
		Code:     ErrCodeNoFile,
		Message:  "ファイルがアップロードされていません。",
		Category: "validation",
		Action:   "fileフィールドに画像ファイルを添付してください。",
	}
}

// NewEmptyFileError は空ファイルエラーを生成する。
func NewEmptyFileError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyFile,
		Message:  "ファイルが空です。",
		Category: "validation",
		Action:   "中身のある画像ファイルを選択してください。",
	}
}

// NewUnsupportedMediaTypeError は拡張子不許可エラーを生成する。
func NewUnsupportedMediaTypeError(filename string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedMediaType,
		Message:  fmt.Sprintf("許可されていないファイル形式です: %s", filename),
		Category: "validation",
		Action:   "PNG、JPG、JPEG、GIF、WEBPのいずれかの形式でアップロードしてください。",
	}
}

// NewPayloadTooLargeError はサイズ超過エラーを生成する。
func NewPayloadTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodePayloadTooLarge,
		Message:  fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています。", maxBytes),
		Category: "validation",
		Action:   "ファイルサイズを小さくしてから再度アップロードしてください。",
	}
}

// NewStorageFailureError はストレージ障害エラーを生成する。
// 内部の詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewStorageFailureError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageFailure,
		Message:  "アップロードの保存に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDuplicateAccountError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewDuplicateAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateAccount,
		Message:  "このユーザー名またはメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のユーザー名・メールアドレスを指定するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名の存在有無を区別しない同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewWeakPasswordError はパスワード長不足エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードは%d文字以上で指定してください。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewInvalidSignupError はサインアップ入力の不備エラーを生成する。
func NewInvalidSignupError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignup,
		Message:  fmt.Sprintf("登録内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "ユーザー名とメールアドレスを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewAdminOnlyError は管理者権限が必要な操作へのアクセス拒否エラーを生成する。
func NewAdminOnlyError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminOnly,
		Message:  "この操作には管理者権限が必要です。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewArtifactNotFoundError はアップロード画像が見つからない場合のエラーを生成する。
func NewArtifactNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeArtifactNotFound,
		Message:  fmt.Sprintf("指定された画像が見つかりません: %s", name),
		Category: "detect",
		Action:   "履歴画面からファイル名を確認してください。",
	}
}
