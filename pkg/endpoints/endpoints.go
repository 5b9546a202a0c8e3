// Package endpoints lists the remote service paths. The resource façades
// pair one of these with a payload and hand both to the dispatcher.
package endpoints

// Auth
const (
	GetAdminToken = "/auth/get_admin_token"
	GetUserToken  = "/auth/get_user_token"
	ForceLogout   = "/auth/force_logout"
	ParseToken    = "/auth/parse_token"
	UserToken     = "/auth/user_token" // legacy login; prefer GetUserToken
)

// User
const (
	UserRegister              = "/user/user_register"
	GetUsers                  = "/user/get_users"
	GetUsersOnlineStatus      = "/user/get_users_online_status"
	GetUsersOnlineTokenDetail = "/user/get_users_online_token_detail"
	GetSubscribeUsersStatus   = "/user/get_subscribe_users_status"
	SubscribeUsersStatus      = "/user/subscribe_users_status"
	SetGlobalMsgRecvOpt       = "/user/set_global_msg_recv_opt"
	UpdateUserInfo            = "/user/update_user_info"
	SearchNotificationAccount = "/user/search_notification_account"
	AddNotificationAccount    = "/user/add_notification_account"
	UpdateNotificationAccount = "/user/update_notification_account"
	AccountCheck              = "/user/account_check"
	GetAllUsersUID            = "/user/get_all_users_uid"
	GetSelfUserInfo           = "/user/get_self_user_info"
	GetUsersInfo              = "/user/get_users_info"
)

// Friend
const (
	AddBlack               = "/friend/add_black"
	AddFriend              = "/friend/add_friend"
	AddFriendResponse      = "/friend/add_friend_response"
	DeleteFriend           = "/friend/delete_friend"
	GetBlackList           = "/friend/get_black_list"
	GetFriendApplyList     = "/friend/get_friend_apply_list"
	GetFriendList          = "/friend/get_friend_list"
	GetSelfFriendApplyList = "/friend/get_self_friend_apply_list"
	ImportFriend           = "/friend/import_friend"
	IsFriend               = "/friend/is_friend"
	RemoveBlack            = "/friend/remove_black"
	SetFriendRemark        = "/friend/set_friend_remark"
	UpdateFriends          = "/friend/update_friends"
)

// Group
const (
	CreateGroup                     = "/group/create_group"
	JoinGroup                       = "/group/join_group"
	QuitGroup                       = "/group/quit_group"
	GetGroupsInfo                   = "/group/get_groups_info"
	GetGroupMemberList              = "/group/get_group_member_list"
	GetGroupMembersInfo             = "/group/get_group_members_info"
	InviteUserToGroup               = "/group/invite_user_to_group"
	KickGroupMember                 = "/group/kick_group_member"
	TransferGroupOwner              = "/group/transfer_group_owner"
	GetJoinedGroupList              = "/group/get_joined_group_list"
	DismissGroup                    = "/group/dismiss_group"
	MuteGroupMember                 = "/group/mute_group_member"
	CancelMuteGroupMember           = "/group/cancel_mute_group_member"
	MuteGroup                       = "/group/mute_group"
	CancelMuteGroup                 = "/group/cancel_mute_group"
	SetGroupMemberNickname          = "/group/set_group_member_nickname"
	SetGroupMemberInfo              = "/group/set_group_member_info"
	GetGroupMemberUserIDs           = "/group/get_group_member_user_i_ds"
	GetGroupAllMemberList           = "/group/get_group_all_member_list"
	GetUserReqGroupApplicationList  = "/group/get_user_req_group_applicationList"
	GetGroupUsersReqApplicationList = "/group/get_group_users_req_application_list"
	GroupApplicationResponse        = "/group/group_application_response"
)

// Message
const (
	SendMsg                  = "/msg/send_msg"
	BatchSendMsg             = "/msg/batch_send_msg"
	ClearMsg                 = "/msg/clear_msg"
	DelMsg                   = "/msg/del_msg"
	ManageSendMsg            = "/msg/manage_send_msg"
	RevokeMsg                = "/msg/revoke_msg"
	SendBusinessNotification = "/msg/send_business_notification"
	GetAllConversations      = "/msg/get_all_conversations"
	GetConversation          = "/msg/get_conversation"
	GetConversations         = "/msg/get_conversations"
)

// Conversation
const (
	GetOwnerConversation      = "/conversation/get_owner_conversation"
	GetSortedConversationList = "/conversation/get_sorted_conversation_list"
	SetConversations          = "/conversation/set_conversations"
)
