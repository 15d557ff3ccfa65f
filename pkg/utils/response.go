package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// ErrorBody 是所有错误响应的统一结构
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondJSON 发送JSON响应。回复内容里常有 "&"、"<" 等字符，不做 HTML 转义。
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Error: message})
}

// RespondAttachment 以下载文件的形式返回 JSON
func RespondAttachment(w http.ResponseWriter, filename string, payload any) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	RespondJSON(w, http.StatusOK, payload)
}
