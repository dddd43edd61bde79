// Package voting 判定投票是否有效以及一轮是否结束
package voting

import (
	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
)

// Decision 一次投票后的结算判定
type Decision struct {
	ListenerCount int
	VotesReceived int
	RoundComplete bool
}

// Evaluate 根据当前票数和在线玩家判断本轮是否结束。
// 听众 = 在线玩家中除讲述者外的人；票数达到听众数即结束（>=，迟到或重复提交不会卡住），
// 没有听众时永不自动结束。
func Evaluate(votes map[string]string, connected []string, speakerID string) Decision {
	listeners := 0
	for _, id := range connected {
		if id != speakerID {
			listeners++
		}
	}

	received := len(votes)
	return Decision{
		ListenerCount: listeners,
		VotesReceived: received,
		RoundComplete: listeners > 0 && received >= listeners,
	}
}

// Accept 校验投票者能否对该轮投票
func Accept(current *room.Round, roundID, voterID string) error {
	if current == nil {
		return apperrors.ErrNoActiveRound
	}
	if current.ID != roundID {
		return apperrors.ErrInvalidRound
	}
	if current.SpeakerID == voterID {
		return apperrors.ErrSpeakerCannotVote
	}
	return nil
}

// Record 记录（或覆盖）一票并返回判定
func Record(r *room.Room, voterID, emotionID string) Decision {
	rd := r.CurrentRound
	rd.Votes[voterID] = emotionID
	return Evaluate(rd.Votes, r.ConnectedIDs(), rd.SpeakerID)
}
