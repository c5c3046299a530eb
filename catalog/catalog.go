// catalog/catalog.go
package catalog

// Catalog 是提供给选题阶段的静态主题目录
type Catalog struct {
	themes []string
	index  map[string]bool
}

var defaultThemes = []string{
	"animals",
	"movies",
	"places",
	"food",
}

// New 用给定主题构建目录，空列表时退回内置默认值
func New(themes []string) *Catalog {
	if len(themes) == 0 {
		themes = defaultThemes
	}
	index := make(map[string]bool, len(themes))
	for _, t := range themes {
		index[t] = true
	}
	return &Catalog{themes: themes, index: index}
}

// Themes 返回可选主题，顺序稳定
func (c *Catalog) Themes() []string {
	out := make([]string, len(c.themes))
	copy(out, c.themes)
	return out
}

// Contains 判断主题是否在目录中
func (c *Catalog) Contains(theme string) bool {
	return c.index[theme]
}
