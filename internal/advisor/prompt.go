package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"coinsight/internal/analysis"
)

const commentaryTemplate = `
你是一位资深的加密货币技术分析师。下面是系统对 {{ .Pair }} 的一次确定性技术分析结果，
请基于这些数据写一段简短的中文解读（不超过200字），帮助用户理解结论的依据与主要风险。

分析结果：
{{ .ResultJSON }}

要求：
1. 不要复述原始数字列表，提炼关键矛盾点与支撑结论的主要因素；
2. 明确提示该结论的风险等级（{{ .RiskLevel }}）与信心（{{ .Confidence }}）；
3. 不构成投资建议，结尾加一句风险提示；
4. 只输出解读文字本身，不要任何额外格式。
`

var tmpl = template.Must(template.New("commentary").Parse(commentaryTemplate))

type promptContext struct {
	Pair       string
	RiskLevel  string
	Confidence string
	ResultJSON string
}

// BuildPrompt 将分析结果渲染为解读提示词。
func BuildPrompt(result analysis.Result) (string, error) {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化分析结果失败: %w", err)
	}

	ctx := promptContext{
		Pair:       result.Pair,
		RiskLevel:  result.RiskSummary.RiskLevel,
		Confidence: result.RiskSummary.Confidence,
		ResultJSON: string(resultJSON),
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("渲染提示词失败: %w", err)
	}

	return buf.String(), nil
}
