package query

// Synonym maps a term to replacement candidates. Only the first replacement is used for
// substitution; the rest document the dictionary.
type Synonym struct {
	Term         string   `yaml:"term"`
	Replacements []string `yaml:"replacements"`
}

// DefaultSynonyms is the built-in business vocabulary, in lookup order.
var DefaultSynonyms = []Synonym{
	{Term: "问题", Replacements: []string{"疑问", "难题", "故障"}},
	{Term: "方法", Replacements: []string{"方式", "方案", "办法", "途径"}},
	{Term: "配置", Replacements: []string{"设置", "设定", "参数"}},
	{Term: "错误", Replacements: []string{"异常", "报错", "故障"}},
	{Term: "文档", Replacements: []string{"文件", "资料", "材料"}},
	{Term: "系统", Replacements: []string{"平台", "应用", "软件"}},
	{Term: "用户", Replacements: []string{"使用者", "成员", "人员"}},
	{Term: "数据", Replacements: []string{"信息", "资料", "内容"}},
}

// DefaultStopwords are stripped to build the stop-word variant. CJK entries are removed as
// substrings; ASCII entries only as whole words.
var DefaultStopwords = []string{
	"的", "是", "在", "有", "和", "了", "与", "对", "这", "那",
	"the", "a", "an", "of", "to", "in", "is", "are", "and", "or",
}
