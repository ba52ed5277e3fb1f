// Package filter はURLパラメータからのフィルタ解決とID集合の合成を提供する。
// 一覧ページのフィルタは毎リクエストURLパラメータから再構築され、永続化されない。
package filter

import "strings"

// ParseIDs はカンマ区切りのパラメータ文字列をトークン化する。
// 各トークンの前後空白を除去し、空トークンは除外する。
// 空文字列の入力にはnilを返す。エラーは発生しない。
// 数値でないトークンの除外はパーサーの責務ではなく、呼び出し側が行う。
func ParseIDs(s string) []string {
	if s == "" {
		return nil
	}

	var ids []string
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		ids = append(ids, token)
	}
	return ids
}
