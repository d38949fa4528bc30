package synthesizer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const notePrompt = `请基于以下历史视频的转文字字幕内容，帮助学生生成一份高质量的Markdown格式学习笔记片段。

视频标题：%s
当前片段：第 %d/%d 段（如提供了前文摘要，请与前文保持逻辑连贯，不要重复前文已经整理过的内容）

字幕内容：
%s

## 格式要求
1. 使用Markdown格式，每个小节必须以二级标题开头，格式为：## 小节标题
2. 不要输出一级标题（# 标题），笔记主标题会另行添加
3. 注重信息之间的逻辑联系，不要拘泥于时间顺序
4. 在首次出现时为西方人名地名使用括号标注英文，例如：马略(Marius)、高卢人(Gauls)
5. 对重要概念和关键词进行**加粗**处理，例如：**马略改革**、**元老院**

## 内容要求
1. **地图优先**：在讲述具体历史事件之前，先提供相关地图搜索建议，帮助读者建立地理概念
   - 格式：[地图标题] - "搜索关键词"
   - 例如：[布匿战争地图] - "第一次布匿战争地图 西西里岛 迦太基"
2. **知识扩展**：使用引用格式(>)适当加入相关知识/观点来帮助理解和深化内容，字幕中没有出现的加粗术语请放在引用中
3. **问答环节**：用斜体格式模拟学习者的思考、提问并模拟历史教授的回答
   - 格式：*Q：问题内容*
   - 格式：*A：回答内容*
   - 问题和回答都要有深度、有启发性、有针对性，避免模板化
4. **内容完善**：由于字幕信息有限，请在合适程度进行知识完善和扩展，但不改变原意
5. **学习重点**：关注制度变迁、社会结构变化等深层内容，注重历史事件之间的因果关系和影响

## 摘要
在输出的最后一行，用不超过100字概括本片段的要点，格式为：<!-- 摘要: 要点 -->`

func buildPrompt(title string, w window, total int) string {
	return fmt.Sprintf(notePrompt, title, w.Index+1, total, w.Text)
}

// rollSummary appends next to the running summary and keeps at most maxRunes of the newest text.
func rollSummary(prev, next string, maxRunes int) string {
	next = strings.TrimSpace(next)
	if next == "" {
		return prev
	}
	joined := next
	if prev != "" {
		joined = prev + "\n" + next
	}
	if utf8.RuneCountInString(joined) <= maxRunes {
		return joined
	}
	r := []rune(joined)
	return string(r[len(r)-maxRunes:])
}
