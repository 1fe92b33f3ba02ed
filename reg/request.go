package reg

import (
	"fmt"
	"time"

	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

// BuildRegistrationInterest constructs the client side of §4.10's
// registration protocol: it signs entry as the embedded Content Object and
// names the Interest <daemonPrefix>/<keyDigest>/<action>/<embedded-entry>,
// the counterpart to Handler.Handle. Used by any face-owning component
// that must self-register a namespace, e.g. repo.Engine.
func BuildRegistrationInterest(daemonPrefix name.Name, keyDigest []byte, entry *msg.ForwardingEntry, signer sec.Signer) (*msg.Interest, error) {
	entryCO := &msg.ContentObject{
		SignedInfo: msg.SignedInfo{
			Timestamp:  time.Now(),
			Type:       msg.ContentTypeData,
			KeyLocator: signer.KeyName(),
		},
		Payload:         entry.Encode(),
		DigestAlgorithm: algorithmForSigType(signer.Type()),
	}
	sig, err := signer.Sign(entryCO.SignedBytes())
	if err != nil {
		return nil, fmt.Errorf("reg: signing embedded entry: %w", err)
	}
	entryCO.Signature = sig
	entryBytes, _ := entryCO.Encode()

	n := daemonPrefix.Clone()
	n = n.Append(name.Component(keyDigest), name.Component(entry.Action.String()), name.Component(entryBytes))

	return &msg.Interest{
		Name:             n,
		Nonce:            msg.NewNonce(),
		AnswerOriginKind: msg.AOKContentStore | msg.AOKNewContent,
	}, nil
}
