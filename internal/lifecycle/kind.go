package lifecycle

import (
	"encoding/json"
	"fmt"

	"Jazz_Forum/internal/apperr"
)

// Kind 参与软删除生命周期的实体类型（封闭枚举）
type Kind int

const (
	KindWorkingGroup Kind = iota + 1
	KindThread
	KindPost
)

// Kinds 按固定顺序返回全部类型
func Kinds() []Kind {
	return []Kind{KindWorkingGroup, KindThread, KindPost}
}

func (k Kind) String() string {
	switch k {
	case KindWorkingGroup:
		return "workingGroup"
	case KindThread:
		return "thread"
	case KindPost:
		return "post"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) Valid() bool {
	return k >= KindWorkingGroup && k <= KindPost
}

// ParseKind 解析请求体中的 type 字段
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, apperr.Invalid("unknown type %q", s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperr.Invalid("type must be a string")
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
