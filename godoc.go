/*
Package teahaz is a client library for the Teahaz chat service.

A Chatroom talks to a single remote chatroom over the service's HTTP/JSON
API: it creates or logs into the room, manages its channels, and sends and
retrieves messages. Asynchronous happenings (new messages, deletions, system
notices, failed requests) are delivered to subscribed handlers; subscribing
to a message event starts a background poller owned by the Chatroom.

message subdirectory contains the wire-facing records (Message, Channel,
User) which know nothing about transport.

The Teacup type is a registry over multiple chatrooms, fanning out global
event subscriptions to every chatroom it creates or logs into.
*/
package teahaz
