package app

import (
	"context"
	"fmt"

	"github.com/Team6378/frc-2015/internal/models"
	socketio "github.com/googollee/go-socket.io"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

var peerConfig = webrtc.Configuration{
	ICEServers: []webrtc.ICEServer{
		{
			URLs: []string{"stun:stun.l.google.com:19302"},
		},
	},
}

func firstMsg(socketConn socketio.Conn, event string, msgs []string) (string, bool) {
	if len(msgs) == 0 {
		log.Warn().Msgf("%s from %s had no msgs", event, socketConn.ID())
		return "", false
	}
	if len(msgs) > 1 {
		log.Warn().Msgf("%s from %s had to many msgs: %d", event, socketConn.ID(), len(msgs))
	}
	return msgs[0], true
}

func (a *App) validSeat(seat int) error {
	if seat < 0 || seat >= len(a.seats) {
		return fmt.Errorf("unsupported seat number: %d", seat)
	}
	return nil
}

func (a *App) onOffer(socketConn socketio.Conn, msgs []string) {
	msg, ok := firstMsg(socketConn, "offer", msgs)
	if !ok {
		return
	}

	offer := models.Offer{}
	err := decode(msg, &offer)
	if err != nil {
		log.Warn().Msgf("offer from %s failed unmarshaling: %s - msg - %s", socketConn.ID(), err.Error(), msg)
		return
	}

	err = a.validSeat(offer.SeatNumber)
	if err != nil {
		log.Warn().Msgf("offer rejected: %s", err.Error())
		return
	}

	answer, err := a.answer(offer)
	if err != nil {
		log.Error().Msgf("failed answering offer for seat %d: %s", offer.SeatNumber, err.Error())
		return
	}

	encodedAnswer, err := encode(answer)
	if err != nil {
		log.Error().Msgf("failed encoding answer: %s", err.Error())
		return
	}
	log.Info().Msgf("sending answer for seat %d", offer.SeatNumber)
	a.client.Emit("answer", encodedAnswer)
}

func (a *App) answer(offer models.Offer) (models.Answer, error) {
	peerConn, err := webrtc.NewPeerConnection(peerConfig)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed creating peer connection: %w", err)
	}

	conn := NewConnection(context.Background(), a.seats[offer.SeatNumber], peerConn)
	conn.RegisterHandlers()
	a.setConnection(offer.SeatNumber, conn)

	// Set the received offer as the remote description
	err = peerConn.SetRemoteDescription(offer.Offer)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to set remote description: %w", err)
	}

	// Create answer
	answer, err := peerConn.CreateAnswer(nil)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to create answer: %w", err)
	}

	// Create channel that is blocked until ICE Gathering is complete
	gatherComplete := webrtc.GatheringCompletePromise(peerConn)

	// Sets the LocalDescription, and starts our UDP listeners
	err = peerConn.SetLocalDescription(answer)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to set local description: %w", err)
	}

	// Block until ICE Gathering is complete, disabling trickle ICE
	<-gatherComplete

	return models.Answer{
		Answer:     peerConn.LocalDescription(),
		SeatNumber: offer.SeatNumber,
	}, nil
}

func (a *App) onICECandidate(socketConn socketio.Conn, msg string) {
	candidate := models.IceCandidate{}
	err := decode(msg, &candidate)
	if err != nil {
		log.Warn().Msgf("ice candidate from %s failed unmarshaling: %s", socketConn.ID(), msg)
		return
	}

	conn := a.connection(candidate.SeatNum)
	if conn == nil {
		log.Warn().Msgf("ice candidate for seat %d without a connection", candidate.SeatNum)
		return
	}

	err = conn.PeerConnection.AddICECandidate(candidate.Candidate)
	if err != nil {
		log.Warn().Msgf("failed adding ice candidate for seat %d: %s", candidate.SeatNum, err.Error())
	}
}

func (a *App) onRegisterSuccess(socketConn socketio.Conn, msgs []string) {
	msg, ok := firstMsg(socketConn, "register_success", msgs)
	if !ok {
		return
	}

	decodedMsg := models.ConnectResp{}
	err := decode(msg, &decodedMsg)
	if err != nil {
		log.Warn().Msgf("register success from %s failed unmarshaling: %s", socketConn.ID(), msg)
		return
	}

	a.lock.Lock()
	a.carInfo = decodedMsg.Car
	a.trackInfo = decodedMsg.Track
	a.lock.Unlock()
	log.Info().Msgf("car connected as %s(%s) @ %s(%s) with %d seats available", decodedMsg.Car.Name, decodedMsg.Car.ShortName, decodedMsg.Track.Name, decodedMsg.Track.ShortName, len(a.seats))
}
