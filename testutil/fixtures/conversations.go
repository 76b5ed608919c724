// =============================================================================
// 📦 测试数据工厂 - 对话样例
// =============================================================================
package fixtures

import (
	"fmt"
	"time"

	"github.com/BaSui01/roundtable/types"
)

// Task 是默认的种子任务
const Task = "Write a short poem about the fall season."

// ApproveMarker 是默认的终止标记
const ApproveMarker = "APPROVE"

// PoemScript 返回作者与评审的脚本，评审第二轮批准
func PoemScript() (writer, critic []string) {
	writer = []string{
		"Leaves drift down in amber light.",
		"Leaves drift down in amber light, the geese trace south by night.",
	}
	critic = []string{
		"Nice start. Add an image of motion in the sky.",
		"Much better. APPROVE",
	}
	return writer, critic
}

// Transcript 构造 seed + 轮询发言的完整历史，共 turns 条非种子消息
func Transcript(runID string, turns int, speakers ...string) []types.Message {
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]types.Message, 0, turns+1)
	msgs = append(msgs, types.Message{
		RunID:     runID,
		Sequence:  0,
		Speaker:   types.UserSpeaker,
		Content:   Task,
		CreatedAt: base,
	})
	for i := 0; i < turns; i++ {
		speaker := speakers[i%len(speakers)]
		msgs = append(msgs, types.Message{
			RunID:     runID,
			Sequence:  i + 1,
			Speaker:   speaker,
			Content:   fmt.Sprintf("%s says %d", speaker, i+1),
			CreatedAt: base.Add(time.Duration(i+1) * time.Second),
		})
	}
	return msgs
}

// Result 用 Transcript 构造一个已完成的运行结果
func Result(runID string, turns int, speakers ...string) *types.RunResult {
	msgs := Transcript(runID, turns, speakers...)
	return &types.RunResult{
		RunID:       runID,
		Messages:    msgs,
		StopReason:  types.StopTerminatedByCondition,
		StopMessage: fmt.Sprintf("maximum of %d turns exceeded", turns-1),
		StartedAt:   msgs[0].CreatedAt,
		FinishedAt:  msgs[len(msgs)-1].CreatedAt,
	}
}
